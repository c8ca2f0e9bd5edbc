// Package conditioner extracts uniformly distributed output blocks from an
// entropy pool through a one-way compression, re-mixing the pool on every
// extraction.
package conditioner

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash"
	"io"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/hkdf"

	"GoJitterRNG/pkg/pool"
)

// BlockSize is the size of one conditioned output block.
const BlockSize = 32

const (
	outputLabel   = "jitter/output/v1"
	feedbackLabel = "jitter/feedback/v1"
	feedbackWords = 8
)

// ErrStale is returned when the pool received no fresh samples even after a stir.
var ErrStale = errors.New("entropy pool is stale")

// Block is one conditioned output block.
type Block [BlockSize]byte

// Stirrer runs one sample, health test and fold cycle against the pool.
type Stirrer interface {
	Stir() error
}

// Conditioner turns pool state into output blocks.
type Conditioner struct {
	stirrer Stirrer
	counter uint64
	scratch [pool.PoolBytes]byte
}

// New creates a conditioner that uses stirrer to refresh a stale pool.
func New(stirrer Stirrer) *Conditioner {
	return &Conditioner{stirrer: stirrer}
}

// Extracted returns the number of blocks produced so far.
func (c *Conditioner) Extracted() uint64 {
	return c.counter
}

// Condition extracts one block from p.
//
// The block is a BLAKE2b-256 digest of the whole pool, so it reveals nothing
// invertible about the pool. Before returning, material derived from the pool
// and the block through HKDF is absorbed back into the pool, so the state the
// block was computed from is never exposed again.
func (c *Conditioner) Condition(p *pool.Pool) (Block, error) {
	var b Block

	// 1. Never extract twice from an unstirred pool
	if p.Fresh() == 0 {
		if err := c.stirrer.Stir(); err != nil {
			return b, fmt.Errorf("stir stale pool: %w", err)
		}
		if p.Fresh() == 0 {
			return b, ErrStale
		}
	}

	c.counter++
	p.Bytes(c.scratch[:])
	defer clear(c.scratch[:])

	var ctr [8]byte
	binary.LittleEndian.PutUint64(ctr[:], c.counter)

	// 2. One-way compression of the full pool
	h, err := blake2b.New256(nil)
	if err != nil {
		return b, err
	}
	h.Write([]byte(outputLabel))
	h.Write(ctr[:])
	h.Write(c.scratch[:])
	h.Sum(b[:0])

	// 3. Re-mix: feedback derived from the old pool and the released block
	var feedback [feedbackWords * 8]byte
	kdf := hkdf.New(newBlake2b512, c.scratch[:], b[:], []byte(feedbackLabel))
	if _, err := io.ReadFull(kdf, feedback[:]); err != nil {
		return Block{}, fmt.Errorf("derive pool feedback: %w", err)
	}
	var words [feedbackWords]uint64
	for i := range words {
		words[i] = binary.LittleEndian.Uint64(feedback[i*8:])
	}
	words[0] ^= c.counter
	p.Absorb(words[:])
	p.MarkExtracted()

	clear(feedback[:])
	clear(words[:])
	return b, nil
}

func newBlake2b512() hash.Hash {
	h, _ := blake2b.New512(nil)
	return h
}
