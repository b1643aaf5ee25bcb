package fallback

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveFirstHitWins(t *testing.T) {
	attempts := []string{}
	v, used, err := Resolve([]string{"a", "b", "c"}, func(c string) (int, error) {
		attempts = append(attempts, c)
		if c == "b" {
			return 42, nil
		}
		return 0, errors.New("miss")
	})
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, "b", used)
	assert.Equal(t, []string{"a", "b"}, attempts, "must stop at the first success")
}

func TestResolveAllFail(t *testing.T) {
	sentinel := errors.New("unreadable")
	_, _, err := Resolve([]string{"x", "y"}, func(string) (string, error) {
		return "", sentinel
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel)
	assert.Contains(t, err.Error(), "x:")
	assert.Contains(t, err.Error(), "y:")
}

func TestResolveNoCandidates(t *testing.T) {
	_, _, err := Resolve(nil, func(string) (int, error) { return 1, nil })
	assert.ErrorIs(t, err, ErrNoCandidates)
}

func TestDedupe(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"empty", nil, nil},
		{"duplicates", []string{"en", "en", "de", "en"}, []string{"en", "de"}},
		{"blanks dropped", []string{"", "fr", "", "fr"}, []string{"fr"}},
		{"order preserved", []string{"c", "a", "b", "a"}, []string{"c", "a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Dedupe(tt.in))
		})
	}
}
