package apportion

import "errors"

var (
	// ErrInvalidVoteCount is returned when a vote is negative or not a finite
	// number, or when seats are requested for an empty vote list.
	ErrInvalidVoteCount = errors.New("votes must be finite non-negative numbers for at least one party")
	// ErrInvalidSeatCount is returned when the seat target is negative or exceeds MaxSeats.
	ErrInvalidSeatCount = errors.New("seat count must be an integer between 0 and 1048576")
)
