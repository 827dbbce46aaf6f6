package coursecode

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubChecker struct {
	calls   int
	results []bool
	err     error
}

func (s *stubChecker) IsUnique(_ context.Context, _ string) (bool, error) {
	s.calls++
	if s.err != nil {
		return false, s.err
	}
	if len(s.results) == 0 {
		return true, nil
	}
	result := s.results[0]
	s.results = s.results[1:]
	return result, nil
}

func TestGenerateReturnsUniqueCode(t *testing.T) {
	checker := &stubChecker{}
	generator := NewGenerator(checker)

	code, err := generator.Generate(context.Background())
	require.NoError(t, err)
	require.Regexp(t, regexp.MustCompile(`^[A-Z0-9]{6}$`), code)
	require.Equal(t, 1, checker.calls)
}

func TestGenerateRetriesOnCollision(t *testing.T) {
	checker := &stubChecker{results: []bool{false, false, true}}
	generator := NewGenerator(checker)

	code, err := generator.Generate(context.Background())
	require.NoError(t, err)
	require.Len(t, code, 6)
	require.Equal(t, 3, checker.calls)
}

func TestGenerateGivesUpAfterFiveAttempts(t *testing.T) {
	checker := &stubChecker{results: []bool{false, false, false, false, false}}
	generator := NewGenerator(checker)

	_, err := generator.Generate(context.Background())
	require.ErrorIs(t, err, ErrExhausted)
	require.EqualError(t, err, "failed to generate unique course code after 5 attempts")
	require.Equal(t, 5, checker.calls)
}

func TestGeneratePropagatesCheckerError(t *testing.T) {
	boom := errors.New("db down")
	checker := &stubChecker{err: boom}
	generator := NewGenerator(checker)

	_, err := generator.Generate(context.Background())
	require.ErrorIs(t, err, boom)
	require.Equal(t, 1, checker.calls)
}

func TestGeneratedCodesVary(t *testing.T) {
	generator := NewGenerator(&stubChecker{})

	seen := map[string]struct{}{}
	for i := 0; i < 20; i++ {
		code, err := generator.Generate(context.Background())
		require.NoError(t, err)
		seen[code] = struct{}{}
	}

	// 20 draws from a 36^6 space colliding down to a single value would mean
	// the RNG is broken.
	require.Greater(t, len(seen), 1)
}

func TestGeneratedCodesCoverTheWholeAlphabet(t *testing.T) {
	counts := make(map[byte]int, len(alphabet))
	for i := 0; i < 2000; i++ {
		code, err := randomCode()
		require.NoError(t, err)
		for j := 0; j < len(code); j++ {
			counts[code[j]]++
		}
	}

	// 12000 uniform draws leave every symbol seen with overwhelming
	// probability, so a sampler that can only reach part of the alphabet
	// fails here.
	for i := 0; i < len(alphabet); i++ {
		require.Positivef(t, counts[alphabet[i]], "symbol %c never drawn", alphabet[i])
	}
}
