package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/iliyamo/restaurant-booking/internal/metrics"
)

type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	clear(p)
	return len(p), nil
}

func TestGenerateUsesAlphabet(t *testing.T) {
	a := NewReferenceAllocator(0)
	seen := make(map[string]bool, 10000)
	for i := 0; i < 10000; i++ {
		ref, err := a.Generate()
		if err != nil {
			t.Fatal(err)
		}
		if len(ref) != ReferenceLength {
			t.Fatalf("len(%q) = %d", ref, len(ref))
		}
		for _, c := range ref {
			if !strings.ContainsRune(ReferenceAlphabet, c) {
				t.Fatalf("unexpected rune %q in %q", c, ref)
			}
		}
		if seen[ref] {
			t.Fatalf("duplicate reference %q after %d draws", ref, i)
		}
		seen[ref] = true
	}
}

func TestAllocateSkipsTakenReferences(t *testing.T) {
	a := NewReferenceAllocator(5)
	collisions := 0
	a.OnCollision = func() { collisions++ }
	calls := 0
	ref, err := a.Allocate(context.Background(), func(context.Context, string) (bool, error) {
		calls++
		return calls < 3, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if ref == "" || calls != 3 || collisions != 2 {
		t.Fatalf("ref=%q calls=%d collisions=%d", ref, calls, collisions)
	}
}

func TestAllocateCountsCollisions(t *testing.T) {
	before := testutil.ToFloat64(metrics.ReferenceCollisions)
	_, err := NewReferenceAllocator(3).Allocate(context.Background(), func(context.Context, string) (bool, error) {
		return true, nil
	})
	if !errors.Is(err, ErrReferenceExhausted) {
		t.Fatalf("err = %v", err)
	}
	if got := testutil.ToFloat64(metrics.ReferenceCollisions) - before; got != 3 {
		t.Errorf("booking_reference_collisions_total grew by %v, want 3", got)
	}
}

func TestAllocateExhausted(t *testing.T) {
	a := &ReferenceAllocator{MaxAttempts: 4, Source: zeroReader{}}
	calls := 0
	_, err := a.Allocate(context.Background(), func(_ context.Context, ref string) (bool, error) {
		calls++
		if ref != "AAAAAAA" {
			t.Errorf("ref = %q", ref)
		}
		return true, nil
	})
	if !errors.Is(err, ErrReferenceExhausted) {
		t.Fatalf("err = %v", err)
	}
	if calls != 4 {
		t.Fatalf("calls = %d, want 4", calls)
	}
}

func TestAllocatePropagatesLookupError(t *testing.T) {
	boom := errors.New("db down")
	_, err := NewReferenceAllocator(3).Allocate(context.Background(), func(context.Context, string) (bool, error) {
		return false, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
}
