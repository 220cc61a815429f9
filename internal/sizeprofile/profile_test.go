package sizeprofile

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/montanaflynn/stats"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		wantErr  bool
	}{{
		name:     "zero capacity",
		capacity: 0,
		wantErr:  true,
	}, {
		name:     "too large capacity",
		capacity: MaxCapacity + 1,
		wantErr:  true,
	}, {
		name:     "default capacity",
		capacity: DefaultCapacity,
	}}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(tt.capacity, nil)
			if (err != nil) != tt.wantErr {
				t.Fatal("unexpected error", err)
			}
			if (p == nil) != tt.wantErr {
				t.Fatal("unexpected profile", p)
			}
		})
	}
}

func TestRecord(t *testing.T) {
	p, err := New(3, nil)
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i <= 5; i++ {
		p.Record(Shape{Keys: i})
	}
	expect := []Shape{{Keys: 3}, {Keys: 4}, {Keys: 5}}
	if diff := cmp.Diff(expect, p.Shapes()); diff != "" {
		t.Fatal(diff)
	}
	if p.Len() != 3 || p.Capacity() != 3 {
		t.Fatal("unexpected length or capacity")
	}
}

func TestSample(t *testing.T) {
	t.Run("empty profile", func(t *testing.T) {
		p, err := New(1, nil)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := p.Sample(nil); !errors.Is(err, ErrEmptyProfile) {
			t.Fatal("unexpected error", err)
		}
	})

	t.Run("randomness failure", func(t *testing.T) {
		p, err := New(DefaultCapacity, DefaultShapes())
		if err != nil {
			t.Fatal(err)
		}
		if _, err := p.Sample(strings.NewReader("")); !errors.Is(err, io.EOF) {
			t.Fatal("unexpected error", err)
		}
	})

	t.Run("every shape gets sampled", func(t *testing.T) {
		seed := []Shape{{Keys: 1}, {Keys: 2}, {Keys: 3}, {Keys: 4}}
		p, err := New(DefaultCapacity, seed)
		if err != nil {
			t.Fatal(err)
		}
		counts := make(map[int]int)
		for i := 0; i < 4000; i++ {
			shape, err := p.Sample(nil)
			if err != nil {
				t.Fatal(err)
			}
			counts[shape.Keys]++
		}
		for _, shape := range seed {
			if c := counts[shape.Keys]; c < 800 || c > 1200 {
				t.Fatal("unexpected count", shape.Keys, c)
			}
		}
	})
}

func TestSummary(t *testing.T) {
	t.Run("without known sizes", func(t *testing.T) {
		p, err := New(DefaultCapacity, DefaultShapes())
		if err != nil {
			t.Fatal(err)
		}
		if _, err := p.Summary(); !errors.Is(err, stats.EmptyInputErr) {
			t.Fatal("unexpected error", err)
		}
	})

	t.Run("with known sizes", func(t *testing.T) {
		p, err := New(DefaultCapacity, []Shape{{Size: 100}, {Size: 200}, {Size: 300}, {Keys: 1}})
		if err != nil {
			t.Fatal(err)
		}
		summary, err := p.Summary()
		if err != nil {
			t.Fatal(err)
		}
		if summary.Count != 3 || summary.Mean != 200 || summary.Median != 200 {
			t.Fatal("unexpected summary", summary)
		}
		if summary.Min != 100 || summary.Max != 300 || summary.StdDev <= 0 {
			t.Fatal("unexpected summary", summary)
		}
	})
}

func TestDefaultShapes(t *testing.T) {
	shapes := DefaultShapes()
	if len(shapes) <= 0 || len(shapes) > DefaultCapacity {
		t.Fatal("unexpected number of shapes", len(shapes))
	}
	for _, shape := range shapes {
		if shape.Keys < 1 || shape.Keys > 14 || shape.Summaries < 0 || shape.Summaries > 14 {
			t.Fatal("unrealistic shape", shape)
		}
		if shape.ExposureInfos*2 != shape.Summaries {
			t.Fatal("expected one exposure info every other summary", shape)
		}
	}

	var keys, summaries []float64
	for _, shape := range shapes {
		keys = append(keys, float64(shape.Keys))
		summaries = append(summaries, float64(shape.Summaries))
	}
	// keys are uniform in 1..14 and summaries are uniform in 0..14
	if mean, _ := stats.Mean(keys); mean != 7.5 {
		t.Fatal("unexpected mean number of keys", mean)
	}
	if variance, _ := stats.PopulationVariance(keys); variance != 16.25 {
		t.Fatal("unexpected variance of the number of keys", variance)
	}
	if mean, _ := stats.Mean(summaries); mean != 7 {
		t.Fatal("unexpected mean number of summaries", mean)
	}
}

func TestMustNew(t *testing.T) {
	t.Run("with a valid capacity", func(t *testing.T) {
		if p := MustNew(1, []Shape{{Keys: 1}}); p.Len() != 1 {
			t.Fatal("unexpected length", p.Len())
		}
	})

	t.Run("with an invalid capacity", func(t *testing.T) {
		var panicked bool
		func() {
			defer func() {
				panicked = recover() != nil
			}()
			MustNew(0, nil)
		}()
		if !panicked {
			t.Fatal("expected a panic")
		}
	})
}
