// Package coursecode produces the short join codes students use to enroll in
// a course.
package coursecode

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	codeLength  = 6
	maxAttempts = 5
	alphabet    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// ErrExhausted is returned when every attempt collided with an existing code.
// With 36^6 possible codes five attempts is a generous margin; hitting this
// error in practice points at a broken uniqueness check rather than bad luck.
var ErrExhausted = fmt.Errorf("failed to generate unique course code after %d attempts", maxAttempts)

// UniquenessChecker answers whether a candidate code is free to use. The
// course repository implements it against the unique index on the code
// column.
type UniquenessChecker interface {
	IsUnique(ctx context.Context, code string) (bool, error)
}

// Generator creates random course codes and retries on collision.
type Generator struct {
	checker UniquenessChecker
}

// NewGenerator builds a generator backed by the provided uniqueness check.
func NewGenerator(checker UniquenessChecker) *Generator {
	return &Generator{checker: checker}
}

// Generate returns the first unused 6-character uppercase-alphanumeric code,
// giving up after a bounded number of collisions.
func (g *Generator) Generate(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		code, err := randomCode()
		if err != nil {
			return "", fmt.Errorf("failed to generate course code: %w", err)
		}

		unique, err := g.checker.IsUnique(ctx, code)
		if err != nil {
			return "", fmt.Errorf("failed to check course code uniqueness: %w", err)
		}
		if unique {
			return code, nil
		}
	}

	return "", ErrExhausted
}

func randomCode() (string, error) {
	max := big.NewInt(int64(len(alphabet)))

	buf := make([]byte, codeLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = alphabet[n.Int64()]
	}

	return string(buf), nil
}
