package framebuffer

import "errors"

// Provider supplies and reclaims pixel memory.
type Provider interface {
	// Alloc returns a zeroed region of exactly n bytes.
	Alloc(n int) ([]byte, error)
	// Free releases a region previously returned by Alloc.
	Free(mem []byte) error
}

var errZeroAlloc = errors.New("zero-sized allocation")

type heapProvider struct{}

// HeapProvider allocates from the Go heap. Free drops the reference and
// leaves reclamation to the garbage collector.
func HeapProvider() Provider { return heapProvider{} }

func (heapProvider) Alloc(n int) ([]byte, error) {
	if n <= 0 {
		return nil, errZeroAlloc
	}
	return make([]byte, n), nil
}

func (heapProvider) Free([]byte) error { return nil }
