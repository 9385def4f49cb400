package importer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/question-import-service/internal/models"
)

var header = []string{"#", "QType", "QName", "QText", "Options", "Answer", "Default Mark", "Tag 1", "Tag 2"}

func dispatchGrid(t *testing.T, grid [][]string) *Result {
	t.Helper()
	n := NewNormalizer(NewMediaScope(nil, "", ""), nil)
	return NewDispatcher(nil).Dispatch(context.Background(), RowsFromGrid(grid), n)
}

func TestRowsFromGrid(t *testing.T) {
	assert.Nil(t, RowsFromGrid(nil))
	assert.Nil(t, RowsFromGrid([][]string{header}))

	rows := RowsFromGrid([][]string{header, {"1", "essay"}, {"2", "match"}})
	require.Len(t, rows, 2)
	assert.Equal(t, 2, rows[0].Number)
	assert.Equal(t, 3, rows[1].Number)
	assert.Equal(t, "", rows[0].Cell(ColText))
}

func TestDispatch_SingleMultiChoiceSheet(t *testing.T) {
	result := dispatchGrid(t, [][]string{
		header,
		{"1", "multichoice", "Q1", "Pick one", "a|b|c|d", "1"},
	})

	require.Len(t, result.Questions, 1)
	q := result.Questions[0]
	assert.Equal(t, models.MultiChoice, q.Type)
	content := q.Content.(*models.MultiChoiceContent)
	require.Len(t, content.Options, 4)
	assert.Equal(t, 1.0, content.Options[0].Fraction)
	for _, opt := range content.Options[1:] {
		assert.Zero(t, opt.Fraction)
	}
	assert.Equal(t, 1, result.TotalRows)
	assert.Empty(t, result.Skipped)
}

func TestDispatch_SkipsIncompleteRows(t *testing.T) {
	result := dispatchGrid(t, [][]string{
		header,
		{"1", "", "Q1", "text", "a|b", "1"},
		{"2", "essay", "", "text"},
		{"3", "essay", "Q3", ""},
		{"4", "essay", "Q4"},
		{},
	})

	assert.Empty(t, result.Questions)
	require.Len(t, result.Skipped, 5)
	assert.Equal(t, "type", result.Skipped[0].Column)
	assert.Equal(t, "name", result.Skipped[1].Column)
	assert.Equal(t, "text", result.Skipped[2].Column)
	assert.Equal(t, "text", result.Skipped[3].Column)
	assert.Equal(t, models.CodeRowSkipped, result.Skipped[0].Code)
}

func TestDispatch_UnknownTypeIsSkippedSilently(t *testing.T) {
	result := dispatchGrid(t, [][]string{
		header,
		{"1", "truefalsee", "Q1", "The sky is blue", "True|False", "1"},
	})

	assert.Empty(t, result.Questions)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, 2, result.Skipped[0].Row)
	assert.Equal(t, "unsupported question type", result.Skipped[0].Message)
	assert.Equal(t, "truefalsee", result.Skipped[0].Value)
}

func TestDispatch_PreservesRowOrderAndFiltersSkips(t *testing.T) {
	result := dispatchGrid(t, [][]string{
		header,
		{"1", " TrueFalse ", "Q1", "Sky is blue", "True|False", "1"},
		{"2", "multichoice", "Q2", "No options", "", "1"},
		{"3", "essay", "Q3", "Write"},
		{"4", "match", "Q4", "Pair", "Paris->France|Rome->Italy"},
		{"5", "gapselect", "Q5", "Gap [[1]]", "x|y"},
		{"6", "ddwtos", "Q6", "Drag [[1]]", "x|y"},
		{"7", "shortanswer", "Q7", "Gold?", "-", "Au", "3", "chem", "easy"},
		{"8", "multichoice", "Q8", "Pick two", "a|b|c", "1,2"},
	})

	require.Len(t, result.Questions, 7)
	names := make([]string, len(result.Questions))
	for i, q := range result.Questions {
		names[i] = q.Name
	}
	assert.Equal(t, []string{"Q1", "Q3", "Q4", "Q5", "Q6", "Q7", "Q8"}, names)
	assert.Equal(t, []int{2, 4, 5, 6, 7, 8, 9}, result.RowNumbers)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, 3, result.Skipped[0].Row)

	short := result.Questions[5]
	assert.Equal(t, 3.0, short.DefaultMark)
	assert.Equal(t, [2]string{"chem", "easy"}, short.Tags)
	assert.LessOrEqual(t, len(result.Questions), result.TotalRows)
}
