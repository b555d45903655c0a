package storage

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/eugenenazirov/sainte-lague/internal/apportion"
)

// DefaultSeats is the parliament size used when nothing else is configured.
const DefaultSeats = 100

var (
	// ErrInvalidSettings indicates the provided settings violate validation rules.
	ErrInvalidSettings = errors.New("default seats must be between 0 and 1048576")
	// ErrInvalidTally indicates a tally is missing a name, has negative votes or mismatched party names.
	ErrInvalidTally = errors.New("tally must have a name, non-negative votes and one party name per vote")
	// ErrTallyNotFound is returned when no tally is stored under the requested name.
	ErrTallyNotFound = errors.New("tally not found")
)

// Settings holds the defaults applied to apportion requests that omit them.
type Settings struct {
	DefaultSeats     int  `json:"defaultSeats"`
	HalfFirstDivisor bool `json:"halfFirstDivisor"`
}

// Tally is a named set of votes kept for repeated apportionment.
type Tally struct {
	Name             string    `json:"name"`
	Parties          []string  `json:"parties,omitempty"`
	Votes            []float64 `json:"votes"`
	Seats            int       `json:"seats"`
	HalfFirstDivisor bool      `json:"halfFirstDivisor"`
}

// Storage provides access to the settings and tallies used by the API.
type Storage interface {
	GetSettings() (Settings, error)
	SetSettings(settings Settings) error
	SaveTally(tally Tally) error
	GetTally(name string) (Tally, error)
	ListTallies() ([]Tally, error)
	DeleteTally(name string) error
}

// MemoryStorage keeps state in-memory and guards access with a RWMutex.
type MemoryStorage struct {
	mu       sync.RWMutex
	settings Settings
	tallies  map[string]Tally
}

// NewMemoryStorage initialises storage with the default settings and no tallies.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		settings: DefaultSettings(),
		tallies:  make(map[string]Tally),
	}
}

// DefaultSettings returns the built-in settings.
func DefaultSettings() Settings {
	return Settings{DefaultSeats: DefaultSeats}
}

// GetSettings returns the current settings.
func (s *MemoryStorage) GetSettings() (Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.settings, nil
}

// SetSettings validates and stores the provided settings.
func (s *MemoryStorage) SetSettings(settings Settings) error {
	if settings.DefaultSeats < 0 || settings.DefaultSeats > apportion.MaxSeats {
		return fmt.Errorf("%w: got %d", ErrInvalidSettings, settings.DefaultSeats)
	}

	s.mu.Lock()
	s.settings = settings
	s.mu.Unlock()

	return nil
}

// SaveTally validates and stores a copy of tally, replacing any tally with the same name.
func (s *MemoryStorage) SaveTally(tally Tally) error {
	normalized, err := normalizeTally(tally)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.tallies[normalized.Name] = normalized
	s.mu.Unlock()

	return nil
}

// GetTally returns a defensive copy of the named tally.
func (s *MemoryStorage) GetTally(name string) (Tally, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tally, ok := s.tallies[strings.TrimSpace(name)]
	if !ok {
		return Tally{}, fmt.Errorf("%w: %q", ErrTallyNotFound, name)
	}
	return cloneTally(tally), nil
}

// ListTallies returns copies of all tallies ordered by name.
func (s *MemoryStorage) ListTallies() ([]Tally, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Tally, 0, len(s.tallies))
	for _, tally := range s.tallies {
		out = append(out, cloneTally(tally))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// DeleteTally removes the named tally.
func (s *MemoryStorage) DeleteTally(name string) error {
	name = strings.TrimSpace(name)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tallies[name]; !ok {
		return fmt.Errorf("%w: %q", ErrTallyNotFound, name)
	}
	delete(s.tallies, name)
	return nil
}

func normalizeTally(tally Tally) (Tally, error) {
	tally.Name = strings.TrimSpace(tally.Name)
	if tally.Name == "" {
		return Tally{}, fmt.Errorf("%w: empty name", ErrInvalidTally)
	}
	if len(tally.Parties) != 0 && len(tally.Parties) != len(tally.Votes) {
		return Tally{}, fmt.Errorf("%w: %d parties for %d votes", ErrInvalidTally, len(tally.Parties), len(tally.Votes))
	}
	for i, v := range tally.Votes {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return Tally{}, fmt.Errorf("%w: vote %d is %v", ErrInvalidTally, i, v)
		}
	}
	if tally.Seats < 0 || tally.Seats > apportion.MaxSeats {
		return Tally{}, fmt.Errorf("%w: seats %d out of range", ErrInvalidTally, tally.Seats)
	}
	return cloneTally(tally), nil
}

func cloneTally(src Tally) Tally {
	out := src
	if src.Parties != nil {
		out.Parties = append([]string(nil), src.Parties...)
	}
	out.Votes = append([]float64{}, src.Votes...)
	return out
}
