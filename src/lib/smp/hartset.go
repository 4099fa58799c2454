package smp

import (
	"math/bits"
	"strconv"
	"strings"
)

// HartSet is a set of hart ids below 64, one bit per hart.
type HartSet uint64

// AllHarts is the set {0..n-1}.
func AllHarts(n int) HartSet {
	if n >= 64 {
		return ^HartSet(0)
	}
	return HartSet(1)<<uint(n) - 1
}

func (s HartSet) On(hart int) bool {
	return s&(1<<uint(hart)) != 0
}

func (s *HartSet) Set(hart int) {
	*s |= 1 << uint(hart)
}

func (s *HartSet) Clear(hart int) {
	*s &^= 1 << uint(hart)
}

func (s HartSet) Len() int {
	return bits.OnesCount64(uint64(s))
}

func (s HartSet) Empty() bool {
	return s == 0
}

// Each calls fn for every member in increasing order.
func (s HartSet) Each(fn func(hart int)) {
	for s != 0 {
		h := bits.TrailingZeros64(uint64(s))
		fn(h)
		s &^= 1 << uint(h)
	}
}

func (s HartSet) String() string {
	parts := []string{}
	s.Each(func(h int) { parts = append(parts, strconv.Itoa(h)) })
	return "{" + strings.Join(parts, ",") + "}"
}
