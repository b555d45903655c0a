package apportion

// contender is a party's standing in the quotient queue.
type contender struct {
	party    int
	votes    float64
	quotient float64
}

// quotientQueue is a max-heap on quotient, lowest party index first among equals.
type quotientQueue []*contender

func (q quotientQueue) Len() int { return len(q) }

func (q quotientQueue) Less(i, j int) bool {
	if q[i].quotient != q[j].quotient {
		return q[i].quotient > q[j].quotient
	}
	return q[i].party < q[j].party
}

func (q quotientQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *quotientQueue) Push(x any) { *q = append(*q, x.(*contender)) }

func (q *quotientQueue) Pop() any {
	old := *q
	n := len(old)
	c := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return c
}
