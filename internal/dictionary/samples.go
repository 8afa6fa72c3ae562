package dictionary

import (
	"sync"

	"chroma-reco/internal/fingerprint"
)

// SampleBuffer collects descriptors for the object being taught.
type SampleBuffer struct {
	mu      sync.Mutex
	samples []fingerprint.Descriptor
}

func (b *SampleBuffer) Add(d fingerprint.Descriptor) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.samples = append(b.samples, d)
	return len(b.samples)
}

func (b *SampleBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.samples)
}

// Drain returns the collected samples and empties the buffer.
func (b *SampleBuffer) Drain() []fingerprint.Descriptor {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := b.samples
	b.samples = nil
	return out
}
