package importer

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

type KeyMode int

const (
	SingleAnswer KeyMode = iota
	MultipleAnswer
)

func (m KeyMode) String() string {
	if m == MultipleAnswer {
		return "multiple"
	}
	return "single"
}

// AnswerKey is a parsed answer-key cell. Correct holds 0-based option
// indices in ascending order; Fractions has one entry per option.
type AnswerKey struct {
	Mode      KeyMode
	Correct   []int
	Fractions []float64
}

func (k AnswerKey) IsSingle() bool {
	return k.Mode == SingleAnswer
}

// IsCorrect reports whether the 0-based option index is keyed.
func (k AnswerKey) IsCorrect(index int) bool {
	i := sort.SearchInts(k.Correct, index)
	return i < len(k.Correct) && k.Correct[i] == index
}

// ParseKey interprets a compact answer key against optionCount options.
//
// A key containing a comma lists several 1-based indices and splits credit
// evenly across the distinct indices. Any other key names a single option
// worth full credit. Indices outside [1, optionCount] are rejected with
// ErrKeyOutOfRange rather than clamped.
func ParseKey(raw string, optionCount int) (AnswerKey, error) {
	key := AnswerKey{Mode: SingleAnswer}
	var tokens []string
	if strings.Contains(raw, ",") {
		key.Mode = MultipleAnswer
		tokens = strings.Split(raw, ",")
	} else {
		tokens = []string{raw}
	}

	seen := make(map[int]bool, len(tokens))
	for _, token := range tokens {
		index, ok := keyIndex(token)
		if !ok {
			continue
		}
		if index < 1 || index > optionCount {
			return AnswerKey{}, fmt.Errorf("%w: %d of %d", ErrKeyOutOfRange, index, optionCount)
		}
		if !seen[index-1] {
			seen[index-1] = true
			key.Correct = append(key.Correct, index-1)
		}
	}
	if len(key.Correct) == 0 {
		return AnswerKey{}, fmt.Errorf("%w: %q", ErrKeyMissing, raw)
	}
	sort.Ints(key.Correct)

	credit := 1.0
	if key.Mode == MultipleAnswer {
		credit = 1 / float64(len(key.Correct))
	}
	key.Fractions = make([]float64, optionCount)
	for _, index := range key.Correct {
		key.Fractions[index] = credit
	}
	return key, nil
}

// keyIndex extracts the first run of digits in token, so "2", " 2 ", "2)"
// and "opt 2" all read as 2. A minus sign directly before the digits keeps
// the index negative, and therefore out of range.
func keyIndex(token string) (int, bool) {
	start := strings.IndexFunc(token, isDigit)
	if start < 0 {
		return 0, false
	}
	end := start
	for end < len(token) && isDigit(rune(token[end])) {
		end++
	}
	n, err := strconv.Atoi(token[start:end])
	if err != nil {
		return 0, false
	}
	if start > 0 && token[start-1] == '-' {
		n = -n
	}
	return n, true
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
