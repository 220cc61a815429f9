// Package sizeprofile keeps a rolling history of the shape of genuine
// uploads so that dummy uploads can be padded to look like them.
//
// A shape is the number of keys, summaries and exposure infos of an
// upload together with its serialized size. Dummy bodies are filled with
// synthetic content following a shape sampled uniformly from the
// profile, therefore the size distribution of dummy uploads follows the
// empirical distribution of genuine uploads rather than its average.
//
// The profile is seeded with [DefaultShapes] so that a fresh install,
// which has never performed a genuine upload, still emits realistic
// dummy traffic.
package sizeprofile

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"sync"

	"github.com/immuni/upload-client/internal/runtimex"
	"github.com/montanaflynn/stats"
)

const (
	// DefaultCapacity is the default number of shapes we remember.
	DefaultCapacity = 100

	// MaxCapacity is the maximum number of shapes we remember.
	MaxCapacity = 1000
)

// ErrEmptyProfile indicates that the profile contains no shapes.
var ErrEmptyProfile = errors.New("sizeprofile: empty profile")

// Shape describes the structure of an upload body.
type Shape struct {
	// Keys is the number of temporary exposure keys.
	Keys int `json:"keys"`

	// Summaries is the number of exposure detection summaries.
	Summaries int `json:"summaries"`

	// ExposureInfos is the total number of exposure infos across summaries.
	ExposureInfos int `json:"exposure_infos"`

	// Size is the serialized size in bytes. Zero for seed shapes.
	Size int `json:"size,omitempty"`
}

// Profile is a rolling buffer of upload shapes. It's safe to use
// a Profile from multiple goroutines.
//
// Once the buffer is full, the oldest shape is overwritten.
type Profile struct {
	mu     sync.RWMutex
	buffer []Shape
	cap    int
	pos    int
}

// New creates a profile with the given capacity seeded with seed.
func New(capacity int, seed []Shape) (*Profile, error) {
	if capacity < 1 || capacity > MaxCapacity {
		return nil, fmt.Errorf("sizeprofile: capacity must be 1 <= cap <= %d, got: %d", MaxCapacity, capacity)
	}
	p := &Profile{
		buffer: make([]Shape, 0, capacity),
		cap:    capacity,
		pos:    0,
	}
	for _, shape := range seed {
		p.Record(shape)
	}
	return p, nil
}

// MustNew is like [New] but panics on failure.
func MustNew(capacity int, seed []Shape) *Profile {
	p, err := New(capacity, seed)
	runtimex.PanicOnError(err, "sizeprofile.New failed")
	return p
}

// Record adds a shape to the profile.
func (p *Profile) Record(shape Shape) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.buffer) < p.cap {
		p.buffer = append(p.buffer, shape)
		return
	}
	// Working as a circular buffer, just overwrite and move on.
	p.buffer[p.pos] = shape
	p.pos = (p.pos + 1) % p.cap
}

// Len returns the number of shapes in the profile.
func (p *Profile) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.buffer)
}

// Capacity returns the profile capacity.
func (p *Profile) Capacity() int {
	return p.cap
}

// Shapes returns a copy of the shapes, oldest first.
func (p *Profile) Shapes() []Shape {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Shape, 0, len(p.buffer))
	out = append(out, p.buffer[p.pos:]...)
	out = append(out, p.buffer[:p.pos]...)
	return out
}

// Sample returns a shape drawn uniformly from the profile, reading
// randomness from r. When r is nil we use crypto/rand.
func (p *Profile) Sample(r io.Reader) (Shape, error) {
	if r == nil {
		r = rand.Reader
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if len(p.buffer) <= 0 {
		return Shape{}, ErrEmptyProfile
	}
	idx, err := rand.Int(r, big.NewInt(int64(len(p.buffer))))
	if err != nil {
		return Shape{}, err
	}
	return p.buffer[idx.Int64()], nil
}

// Summary contains statistics about the serialized size of uploads.
type Summary struct {
	Count  int
	Mean   float64
	StdDev float64
	Median float64
	Min    float64
	Max    float64
}

// Summarize computes statistics over sizes.
func Summarize(sizes []int) (*Summary, error) {
	data := stats.LoadRawData(sizes)
	if len(data) <= 0 {
		return nil, stats.EmptyInputErr
	}
	out := &Summary{Count: len(data)}
	var err error
	if out.Mean, err = data.Mean(); err != nil {
		return nil, err
	}
	if out.StdDev, err = data.StandardDeviation(); err != nil {
		return nil, err
	}
	if out.Median, err = data.Median(); err != nil {
		return nil, err
	}
	if out.Min, err = data.Min(); err != nil {
		return nil, err
	}
	if out.Max, err = data.Max(); err != nil {
		return nil, err
	}
	return out, nil
}

// Summary summarizes the sizes of the recorded shapes whose size is known.
func (p *Profile) Summary() (*Summary, error) {
	var sizes []int
	for _, shape := range p.Shapes() {
		if shape.Size > 0 {
			sizes = append(sizes, shape.Size)
		}
	}
	return Summarize(sizes)
}
