package apportion

// MaxSeats bounds the seat target so the divisor sequence stays exact in
// float64 and allocation time stays predictable.
const MaxSeats = 1 << 20

// Method selects the first divisor of the sequence.
type Method int

const (
	// SainteLague uses the divisors 1, 3, 5, 7, ...
	SainteLague Method = iota
	// SainteLagueModified uses 0.5 for the first seat of every party, then 3, 5, 7, ...
	SainteLagueModified
)

func (m Method) String() string {
	switch m {
	case SainteLague:
		return "sainte-lague"
	case SainteLagueModified:
		return "sainte-lague-modified"
	default:
		return "unknown"
	}
}

// MethodFor maps the half-first-divisor flag onto a Method.
func MethodFor(halfFirstDivisor bool) Method {
	if halfFirstDivisor {
		return SainteLagueModified
	}
	return SainteLague
}

// Result is the outcome of an apportionment.
// Seats is aligned positionally with the input votes. Ties lists the parties
// whose next quotient equalled the one that won the final seat; they lost it
// only because a lower index wins ties.
type Result struct {
	Seats      []int
	TotalSeats int
	TotalVotes float64
	Method     Method
	Ties       []int
}

// Apportioner describes the behaviour required from a seat allocator.
type Apportioner interface {
	Apportion(votes []float64, seats int) (Result, error)
}
