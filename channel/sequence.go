package channel

import (
	"strconv"
	"sync/atomic"
)

// Sequence hands out channel names. Values start at 1 and are never reused.
type Sequence struct {
	n atomic.Uint64
}

// DefaultSequence is shared by channels created without WithSequence.
var DefaultSequence = &Sequence{}

// NewSequence returns a sequence whose first value is start+1.
func NewSequence(start uint64) *Sequence {
	s := &Sequence{}
	s.n.Store(start)
	return s
}

// Next returns the next value.
func (s *Sequence) Next() uint64 {
	return s.n.Add(1)
}

// NextName returns the next value formatted as a decimal string.
func (s *Sequence) NextName() string {
	return strconv.FormatUint(s.Next(), 10)
}
