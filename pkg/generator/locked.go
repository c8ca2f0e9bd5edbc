package generator

import "sync"

var _ RNG = (*Locked)(nil)

// Locked serializes access to one Generator so it can be shared between
// goroutines.
type Locked struct {
	mu sync.Mutex
	g  *Generator
}

// NewLocked wraps g. The caller must stop using g directly.
func NewLocked(g *Generator) *Locked {
	return &Locked{g: g}
}

func (l *Locked) Uint32() uint32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.g.Uint32()
}

func (l *Locked) Uint64() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.g.Uint64()
}

func (l *Locked) FillBytes(buf []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.g.FillBytes(buf)
}

func (l *Locked) TryFillBytes(buf []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.g.TryFillBytes(buf)
}

func (l *Locked) Read(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.g.Read(p)
}

// State returns the wrapped generator's state.
func (l *Locked) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.g.State()
}
