package importer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKey_SingleAnswer(t *testing.T) {
	key, err := ParseKey("2", 4)
	require.NoError(t, err)

	assert.True(t, key.IsSingle())
	assert.Equal(t, []int{1}, key.Correct)
	assert.Equal(t, []float64{0, 1, 0, 0}, key.Fractions)
}

func TestParseKey_MultipleAnswers(t *testing.T) {
	key, err := ParseKey("1,3", 4)
	require.NoError(t, err)

	assert.False(t, key.IsSingle())
	assert.Equal(t, MultipleAnswer, key.Mode)
	assert.Equal(t, []float64{0.5, 0, 0.5, 0}, key.Fractions)
	assert.True(t, key.IsCorrect(0))
	assert.False(t, key.IsCorrect(1))
	assert.True(t, key.IsCorrect(2))
}

func TestParseKey_SanitizesTokens(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected []float64
		single   bool
	}{
		{"padded", " 3 ", []float64{0, 0, 1}, true},
		{"trailing punctuation", "2)", []float64{0, 1, 0}, true},
		{"labelled", "option 1", []float64{1, 0, 0}, true},
		{"spaced list", " 1 , 2 ", []float64{0.5, 0.5, 0}, false},
		{"trailing comma", "3,", []float64{0, 0, 1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := ParseKey(tt.raw, 3)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, key.Fractions)
			assert.Equal(t, tt.single, key.IsSingle())
		})
	}
}

func TestParseKey_DuplicateIndicesShareCreditOnce(t *testing.T) {
	key, err := ParseKey("1,1,3", 3)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 2}, key.Correct)
	assert.Equal(t, []float64{0.5, 0, 0.5}, key.Fractions)
}

func TestParseKey_CorrectFractionsSumToOne(t *testing.T) {
	for _, raw := range []string{"1", "1,2", "1,2,3", "2,3,4,5,6"} {
		key, err := ParseKey(raw, 6)
		require.NoError(t, err, raw)

		sum := 0.0
		for _, f := range key.Fractions {
			sum += f
		}
		assert.InDelta(t, 1.0, sum, 1e-9, raw)
	}
}

func TestParseKey_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want error
	}{
		{"empty", "", ErrKeyMissing},
		{"no digits", "abc", ErrKeyMissing},
		{"only commas", ",,", ErrKeyMissing},
		{"zero", "0", ErrKeyOutOfRange},
		{"past the end", "5", ErrKeyOutOfRange},
		{"one bad index in list", "1,9", ErrKeyOutOfRange},
		{"negative", "-1", ErrKeyOutOfRange},
		{"negative in list", "2,-3", ErrKeyOutOfRange},
		{"negative zero", "-0", ErrKeyOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseKey(tt.raw, 4)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}
