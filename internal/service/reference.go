package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/iliyamo/restaurant-booking/internal/metrics"
)

const (
	ReferenceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	ReferenceLength   = 7

	defaultReferenceAttempts = 10
)

// ErrReferenceExhausted is returned when every drawn reference was already
// taken.
var ErrReferenceExhausted = errors.New("booking reference space exhausted")

// ReferenceAllocator draws booking references uniformly from
// ReferenceAlphabet and retries on collision, at most MaxAttempts times.
type ReferenceAllocator struct {
	MaxAttempts int
	// Source defaults to crypto/rand.
	Source io.Reader
	// OnCollision, if set, is called for every drawn reference already in use.
	OnCollision func()
}

// NewReferenceAllocator counts collisions in
// booking_reference_collisions_total.
func NewReferenceAllocator(maxAttempts int) *ReferenceAllocator {
	if maxAttempts < 1 {
		maxAttempts = defaultReferenceAttempts
	}
	return &ReferenceAllocator{MaxAttempts: maxAttempts, OnCollision: metrics.ReferenceCollisions.Inc}
}

// Generate returns one random reference without checking for collisions.
func (a *ReferenceAllocator) Generate() (string, error) {
	src := a.Source
	if src == nil {
		src = rand.Reader
	}
	// 252 is the largest multiple of 36 below 256; bytes above it are
	// dropped to keep the draw uniform.
	const limit = 256 - 256%len(ReferenceAlphabet)
	out := make([]byte, 0, ReferenceLength)
	buf := make([]byte, ReferenceLength*2)
	for len(out) < ReferenceLength {
		if _, err := io.ReadFull(src, buf); err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, ReferenceAlphabet[int(b)%len(ReferenceAlphabet)])
			if len(out) == ReferenceLength {
				break
			}
		}
	}
	return string(out), nil
}

// Allocate draws references until exists reports one as unused.
func (a *ReferenceAllocator) Allocate(ctx context.Context, exists func(ctx context.Context, ref string) (bool, error)) (string, error) {
	attempts := a.MaxAttempts
	if attempts < 1 {
		attempts = defaultReferenceAttempts
	}
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		ref, err := a.Generate()
		if err != nil {
			return "", err
		}
		taken, err := exists(ctx, ref)
		if err != nil {
			return "", err
		}
		if !taken {
			return ref, nil
		}
		if a.OnCollision != nil {
			a.OnCollision()
		}
	}
	return "", ErrReferenceExhausted
}

// ValidReference reports whether ref has the shape of a generated reference.
func ValidReference(ref string) bool {
	if len(ref) != ReferenceLength {
		return false
	}
	for i := 0; i < len(ref); i++ {
		if !strings.ContainsRune(ReferenceAlphabet, rune(ref[i])) {
			return false
		}
	}
	return true
}
