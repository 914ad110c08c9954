// Package codes generates the short human-readable identifiers printed on
// wristbands, lab slips and prescriptions. Candidates are random; Unique
// probes the store a bounded number of times and falls back to an unchecked
// candidate rather than failing the business operation.
package codes

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"
)

const (
	// uniqueAttempts bounds the collision probe before falling back.
	uniqueAttempts = 5

	base36 = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// ExistsFunc reports whether a candidate code is already taken.
type ExistsFunc func(ctx context.Context, code string) (bool, error)

// Generator produces random code candidates. Safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
	now func() time.Time
}

func NewGenerator() *Generator {
	return &Generator{
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
		now: time.Now,
	}
}

// NewSeededGenerator builds a deterministic generator for tests.
func NewSeededGenerator(seed int64, now func() time.Time) *Generator {
	if now == nil {
		now = time.Now
	}
	return &Generator{rnd: rand.New(rand.NewSource(seed)), now: now}
}

func (g *Generator) intn(n int) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rnd.Intn(n)
}

// Numeric returns prefix + "-" + a random n-digit number. The first digit is
// never zero, so a 5-digit code spans 10000 through 99999.
func (g *Generator) Numeric(prefix string, digits int) string {
	low := 1
	for i := 1; i < digits; i++ {
		low *= 10
	}
	return fmt.Sprintf("%s-%d", prefix, low+g.intn(9*low))
}

// Base36 returns prefix + "-" + n random base36 characters followed by the
// last tail characters of the current unix-nano timestamp, uppercased.
func (g *Generator) Base36(prefix string, n, tail int) string {
	var b strings.Builder
	b.WriteString(prefix)
	b.WriteByte('-')
	for i := 0; i < n; i++ {
		b.WriteByte(base36[g.intn(len(base36))])
	}
	ts := fmt.Sprintf("%d", g.now().UnixNano())
	if tail > 0 && tail <= len(ts) {
		b.WriteString(ts[len(ts)-tail:])
	}
	return strings.ToUpper(b.String())
}

// Unique calls next until exists reports the candidate free, giving up after
// a fixed number of attempts. On exhaustion it draws one more fresh candidate
// and returns it unchecked: a known-taken code would be guaranteed to violate
// the unique index, a fresh one carries only the residual collision risk. It
// errors only when the existence probe itself fails.
func Unique(ctx context.Context, next func() string, exists ExistsFunc) (string, error) {
	for i := 0; i < uniqueAttempts; i++ {
		code := next()
		taken, err := exists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("checking code %s: %w", code, err)
		}
		if !taken {
			return code, nil
		}
	}
	return next(), nil
}
