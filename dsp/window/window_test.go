package window

import (
	"math"
	"testing"
)

func TestGenerateHannSymmetric(t *testing.T) {
	w := Generate(TypeHann, 9)
	if len(w) != 9 {
		t.Fatalf("length=%d want=9", len(w))
	}
	if math.Abs(w[0]) > 1e-12 || math.Abs(w[8]) > 1e-12 {
		t.Fatalf("symmetric Hann endpoints must be 0: %f %f", w[0], w[8])
	}
	if math.Abs(w[4]-1) > 1e-12 {
		t.Fatalf("symmetric Hann midpoint must be 1: %f", w[4])
	}
	for i := range w {
		if math.Abs(w[i]-w[len(w)-1-i]) > 1e-12 {
			t.Fatalf("Hann window not symmetric at %d", i)
		}
	}
}

func TestGenerateHannPeriodicOverlapAdd(t *testing.T) {
	// A periodic Hann with 50% overlap sums to a constant.
	n := 64
	hop := n / 2
	w := Generate(TypeHann, n, WithPeriodic())

	sum := make([]float64, n+hop)
	for ofs := 0; ofs+n <= len(sum); ofs += hop {
		for i, v := range w {
			sum[ofs+i] += v
		}
	}

	for i := hop; i < n; i++ {
		if math.Abs(sum[i]-1) > 1e-12 {
			t.Fatalf("periodic Hann COLA violated at %d: %f", i, sum[i])
		}
	}
}

func TestGenerateRectangular(t *testing.T) {
	w := Generate(TypeRectangular, 4)
	for i, v := range w {
		if v != 1 {
			t.Fatalf("rectangular[%d]=%f want=1", i, v)
		}
	}
}

func TestGenerateEdgeCases(t *testing.T) {
	if Generate(TypeHann, 0) != nil {
		t.Fatalf("zero length must return nil")
	}
	if w := Generate(TypeHann, 1); len(w) != 1 || w[0] != 1 {
		t.Fatalf("length-1 window must be [1]: %v", w)
	}
	if Generate(Type(99), 8) != nil {
		t.Fatalf("unknown type must return nil")
	}
}

func TestGenerateHamming(t *testing.T) {
	w := Generate(TypeHamming, 5)
	if math.Abs(w[0]-0.08) > 1e-12 {
		t.Fatalf("Hamming endpoint=%f want=0.08", w[0])
	}
	if math.Abs(w[2]-1) > 1e-12 {
		t.Fatalf("Hamming midpoint=%f want=1", w[2])
	}
}
