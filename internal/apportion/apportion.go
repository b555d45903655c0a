package apportion

import (
	"container/heap"
	"fmt"
	"math"
	"slices"
)

// Option configures an engine returned by New.
type Option func(*engine)

// WithMethod selects the divisor sequence used by the engine.
func WithMethod(m Method) Option {
	return func(e *engine) {
		e.method = m
	}
}

type engine struct {
	method Method
}

// New creates an Apportioner using the plain Sainte-Laguë method unless
// configured otherwise.
func New(opts ...Option) Apportioner {
	e := &engine{method: SainteLague}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *engine) Apportion(votes []float64, seats int) (Result, error) {
	if err := validate(votes, seats); err != nil {
		return Result{}, err
	}

	total := 0.0
	for _, v := range votes {
		total += v
	}

	allocated, ties := allocate(votes, seats, e.method == SainteLagueModified)
	return Result{
		Seats:      allocated,
		TotalSeats: seats,
		TotalVotes: total,
		Method:     e.method,
		Ties:       ties,
	}, nil
}

// Distribute awards seats to parties by the Sainte-Laguë method and returns the
// seat counts aligned with votes. When halfFirstDivisor is set, every party's
// first seat is contested with divisor 0.5 instead of 1.
//
// Equal quotients go to the lowest index. Zero seats yield a zero vector of
// len(votes); seats requested for an empty vote list fail with
// ErrInvalidVoteCount.
func Distribute(votes []float64, seats int, halfFirstDivisor bool) ([]int, error) {
	if err := validate(votes, seats); err != nil {
		return nil, err
	}
	allocated, _ := allocate(votes, seats, halfFirstDivisor)
	return allocated, nil
}

func validate(votes []float64, seats int) error {
	if seats < 0 || seats > MaxSeats {
		return fmt.Errorf("%w: got %d", ErrInvalidSeatCount, seats)
	}
	for i, v := range votes {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: party %d has %v votes", ErrInvalidVoteCount, i, v)
		}
	}
	if len(votes) == 0 && seats > 0 {
		return fmt.Errorf("%w: cannot award %d seats without parties", ErrInvalidVoteCount, seats)
	}
	return nil
}

// allocate runs the highest-quotient rounds on input already accepted by
// validate. It returns the seats per party and the tie report: the parties,
// in index order, whose quotient equalled the one that won the final seat.
// The tie report is nil when seats is zero.
func allocate(votes []float64, seats int, halfFirstDivisor bool) ([]int, []int) {
	allocated := make([]int, len(votes))
	if seats == 0 {
		return allocated, nil
	}

	q := make(quotientQueue, len(votes))
	for i, v := range votes {
		q[i] = &contender{party: i, votes: v, quotient: v / divisor(0, halfFirstDivisor)}
	}
	heap.Init(&q)

	var winner int
	var winning float64
	for range seats {
		top := q[0]
		winner, winning = top.party, top.quotient

		allocated[top.party]++
		top.quotient = top.votes / divisor(allocated[top.party], halfFirstDivisor)
		heap.Fix(&q, 0)
	}

	var ties []int
	for _, c := range q {
		if c.party != winner && c.quotient == winning {
			ties = append(ties, c.party)
		}
	}
	slices.Sort(ties)

	return allocated, ties
}

// divisor returns the divisor contesting a party's next seat given the seats
// it already holds.
func divisor(held int, halfFirstDivisor bool) float64 {
	if held == 0 && halfFirstDivisor {
		return 0.5
	}
	return float64(2*held + 1)
}
