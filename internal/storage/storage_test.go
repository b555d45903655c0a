package storage

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewMemoryStorageReturnsDefaultSettings(t *testing.T) {
	t.Parallel()

	store := NewMemoryStorage()

	got, err := store.GetSettings()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != DefaultSettings() {
		t.Fatalf("expected default settings %+v, got %+v", DefaultSettings(), got)
	}
}

func TestSetSettingsUpdatesState(t *testing.T) {
	t.Parallel()

	store := NewMemoryStorage()
	want := Settings{DefaultSeats: 631, HalfFirstDivisor: true}
	if err := store.SetSettings(want); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := store.GetSettings()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestSetSettingsRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	for _, seats := range []int{-1, 1<<20 + 1} {
		seats := seats
		t.Run(fmt.Sprintf("seats_%d", seats), func(t *testing.T) {
			store := NewMemoryStorage()
			if err := store.SetSettings(Settings{DefaultSeats: seats}); !errors.Is(err, ErrInvalidSettings) {
				t.Fatalf("expected ErrInvalidSettings for %d, got %v", seats, err)
			}
		})
	}
}

func TestSaveAndGetTally(t *testing.T) {
	t.Parallel()

	store := NewMemoryStorage()
	in := Tally{
		Name:    "  bundestag-2013 ",
		Parties: []string{"CDU/CSU", "SPD", "LINKE", "GRUENE"},
		Votes:   []float64{41.5, 25.7, 8.6, 8.4},
		Seats:   631,
	}
	if err := store.SaveTally(in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// ensure mutation safety on input
	in.Votes[0] = 0

	got, err := store.GetTally("bundestag-2013")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Tally{
		Name:    "bundestag-2013",
		Parties: []string{"CDU/CSU", "SPD", "LINKE", "GRUENE"},
		Votes:   []float64{41.5, 25.7, 8.6, 8.4},
		Seats:   631,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected tally (-want +got):\n%s", diff)
	}

	// ensure mutation safety on output
	got.Votes[1] = 99
	again, err := store.GetTally("bundestag-2013")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again.Votes[1] != 25.7 {
		t.Fatalf("expected defensive copy, got %v", again.Votes)
	}
}

func TestSaveTallyRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	testCases := []Tally{
		{Name: "", Votes: []float64{1}},
		{Name: "   ", Votes: []float64{1}},
		{Name: "mismatch", Parties: []string{"a"}, Votes: []float64{1, 2}},
		{Name: "negative", Votes: []float64{-1, 2}},
		{Name: "nan", Votes: []float64{math.NaN()}},
		{Name: "seats", Votes: []float64{1}, Seats: -1},
	}

	for idx, tc := range testCases {
		tc := tc
		t.Run(fmt.Sprintf("case_%d", idx), func(t *testing.T) {
			store := NewMemoryStorage()
			if err := store.SaveTally(tc); !errors.Is(err, ErrInvalidTally) {
				t.Fatalf("expected ErrInvalidTally for %+v, got %v", tc, err)
			}
		})
	}
}

func TestListAndDeleteTallies(t *testing.T) {
	t.Parallel()

	store := NewMemoryStorage()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := store.SaveTally(Tally{Name: name, Votes: []float64{1}, Seats: 1}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	list, err := store.ListTallies()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var names []string
	for _, tally := range list {
		names = append(names, tally.Name)
	}
	if diff := cmp.Diff([]string{"alpha", "mid", "zeta"}, names); diff != "" {
		t.Fatalf("unexpected order (-want +got):\n%s", diff)
	}

	if err := store.DeleteTally("mid"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.GetTally("mid"); !errors.Is(err, ErrTallyNotFound) {
		t.Fatalf("expected ErrTallyNotFound, got %v", err)
	}
	if err := store.DeleteTally("mid"); !errors.Is(err, ErrTallyNotFound) {
		t.Fatalf("expected ErrTallyNotFound on second delete, got %v", err)
	}
}

func TestMemoryStorageConcurrentAccess(t *testing.T) {
	store := NewMemoryStorage()
	var wg sync.WaitGroup

	for i := 0; i < 32; i++ {
		wg.Add(3)

		go func(offset int) {
			defer wg.Done()
			if err := store.SetSettings(Settings{DefaultSeats: 100 + offset}); err != nil {
				t.Errorf("SetSettings failed: %v", err)
			}
		}(i)

		go func(offset int) {
			defer wg.Done()
			tally := Tally{Name: fmt.Sprintf("t%d", offset%4), Votes: []float64{float64(offset), 1}, Seats: 10}
			if err := store.SaveTally(tally); err != nil {
				t.Errorf("SaveTally failed: %v", err)
			}
		}(i)

		go func() {
			defer wg.Done()
			if _, err := store.GetSettings(); err != nil {
				t.Errorf("GetSettings failed: %v", err)
			}
			if _, err := store.ListTallies(); err != nil {
				t.Errorf("ListTallies failed: %v", err)
			}
		}()
	}

	wg.Wait()

	list, err := store.ListTallies()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 4 {
		t.Fatalf("expected 4 tallies, got %d", len(list))
	}
}
