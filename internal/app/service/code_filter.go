package service

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

const minFilterCapacity = 10000

// CodeFilter is a concurrency-safe bloom filter over known short codes.
// A negative answer is definite, so a miss short-circuits resolution to
// NotFound without touching storage; a positive answer still goes to the
// database.
type CodeFilter struct {
	mu     sync.RWMutex
	filter *bloom.BloomFilter
}

// NewCodeFilter sizes the filter for the given codes (with headroom for
// growth) and seeds it.
func NewCodeFilter(codes []string) *CodeFilter {
	capacity := uint(len(codes) * 2)
	if capacity < minFilterCapacity {
		capacity = minFilterCapacity
	}

	f := &CodeFilter{filter: bloom.NewWithEstimates(capacity, 0.01)}
	for _, code := range codes {
		f.filter.AddString(code)
	}
	return f
}

// Add registers a newly created short code.
func (f *CodeFilter) Add(code string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filter.AddString(code)
}

// MightContain reports whether the code could exist. False means it
// definitely does not.
func (f *CodeFilter) MightContain(code string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.filter.TestString(code)
}
