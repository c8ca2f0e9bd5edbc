// Package pool folds raw timing samples into a fixed-size entropy pool.
//
// The fold is a fast, deterministic diffusion step, not a one-way function:
// unpredictability comes from the samples, and one-wayness is added by the
// conditioner when output is extracted.
package pool

import (
	"encoding/binary"
	"math/bits"

	"GoJitterRNG/pkg/sampler"
)

const (
	// PoolWords is the pool size in 64-bit words (2048 bits).
	PoolWords = 32
	// PoolBytes is the serialized pool size.
	PoolBytes = PoolWords * 8

	rotateStep = 7
)

// taps are offsets from the cursor of the words mixed into each update.
// The last tap is combined by modular addition, the rest by XOR.
var taps = [...]int{1, 5, 11, 19, 26}

// twist is indexed by the low three bits of the updated word.
var twist = [8]uint64{
	0x0000000000000000, 0x3b6e20c8ec3a1f54, 0x76dc419164e5ba88, 0x4db26158d8f3e7dc,
	0xedb88320b1e6a611, 0xd6d6a3e82cdf4b45, 0x9b64c2b0fa1cf899, 0xa00ae27863a2aecd,
}

// Pool is the entropy pool. The zero value is an empty, usable pool.
// A Pool is owned by exactly one generator and is not safe for concurrent use.
type Pool struct {
	words  [PoolWords]uint64
	cursor int
	rotate uint
	fresh  int
}

// New returns an empty pool.
func New() *Pool {
	return &Pool{}
}

// Fold mixes one raw sample into the pool. The result depends only on the
// current pool content and the sample.
func (p *Pool) Fold(s sampler.RawSample) {
	p.mix(premix(uint64(s)))
	p.fresh++
}

// Absorb mixes derived material back into the pool. Absorbed words are not
// counted as fresh jitter.
func (p *Pool) Absorb(in []uint64) {
	for _, w := range in {
		p.mix(premix(w))
	}
}

// Fresh returns the number of samples folded since the last extraction.
func (p *Pool) Fresh() int {
	return p.fresh
}

// MarkExtracted records that the current content has been released through
// the conditioner.
func (p *Pool) MarkExtracted() {
	p.fresh = 0
}

// Bytes serializes the pool words little-endian into dst, which must hold
// at least PoolBytes bytes.
func (p *Pool) Bytes(dst []byte) {
	_ = dst[PoolBytes-1]
	for i, w := range p.words {
		binary.LittleEndian.PutUint64(dst[i*8:], w)
	}
}

// premix spreads every input bit over the whole word (splitmix64 step).
func premix(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

func (p *Pool) mix(x uint64) {
	i := p.cursor
	w := bits.RotateLeft64(x, int(p.rotate))
	w ^= p.words[i]
	for _, t := range taps[:len(taps)-1] {
		w ^= p.words[(i+t)%PoolWords]
	}
	w += p.words[(i+taps[len(taps)-1])%PoolWords]
	p.words[i] = (w >> 3) ^ twist[w&7]

	p.rotate = (p.rotate + rotateStep) & 63
	p.cursor = (i + PoolWords - 1) % PoolWords
}
