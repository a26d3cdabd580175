package event

// Counter accumulates occurrences per event type.
// Not safe for concurrent use: callers hold their own lock.
type Counter struct {
	counts map[Type]uint64
}

func NewCounter() *Counter {
	return &Counter{counts: make(map[Type]uint64)}
}

func (c *Counter) Increment(t Type) {
	c.counts[t]++
}

func (c *Counter) Get(t Type) uint64 {
	return c.counts[t]
}
