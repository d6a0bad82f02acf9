package task_test

import (
	"testing"
	"time"

	"github.com/geocoder89/taskhub/internal/domain/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)

func mk(id, title string, p task.Priority, createdOffset time.Duration) task.Task {
	return task.Task{
		ID:        id,
		OwnerID:   "owner",
		Title:     title,
		Priority:  p,
		Tags:      []string{},
		CreatedAt: base.Add(createdOffset),
	}
}

func ids(tasks []task.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func datePtr(d task.Date) *task.Date { return &d }

func boolPtr(b bool) *bool { return &b }

func TestApply_SearchMatchesTitleDescriptionOrTags(t *testing.T) {
	milk := mk("1", "Buy milk", task.PriorityMedium, 0)
	dentist := mk("2", "Call dentist", task.PriorityMedium, time.Minute)
	dentist.Tags = []string{"health"}
	notes := mk("3", "Read", task.PriorityMedium, 2*time.Minute)
	notes.Description = "Chapter on HEALTHY habits"

	all := []task.Task{milk, dentist, notes}

	assert.Equal(t, []string{"1"}, ids(task.Apply(all, task.ListFilter{Search: strPtr("milk")})))
	assert.Equal(t, []string{"3", "2"}, ids(task.Apply(all, task.ListFilter{Search: strPtr("Health")})))
	assert.Equal(t, []string{"3", "2", "1"}, ids(task.Apply(all, task.ListFilter{Search: strPtr("  ")})))
}

func TestApply_FiltersCompose(t *testing.T) {
	a := mk("a", "one", task.PriorityHigh, 0)
	a.Category = "work"
	a.Completed = true
	b := mk("b", "two", task.PriorityHigh, time.Minute)
	b.Category = "work"
	c := mk("c", "three", task.PriorityHigh, 2*time.Minute)
	c.Category = "home"

	all := []task.Task{a, b, c}

	got := task.Apply(all, task.ListFilter{Category: strPtr("work"), Completed: boolPtr(false)})
	assert.Equal(t, []string{"b"}, ids(got))

	got = task.Apply(all, task.ListFilter{Completed: boolPtr(true)})
	assert.Equal(t, []string{"a"}, ids(got))

	got = task.Apply(all, task.ListFilter{Category: strPtr("Work")})
	assert.Empty(t, got, "category is an exact match")
}

func TestApply_PrioritySort(t *testing.T) {
	all := []task.Task{
		mk("low", "l", task.PriorityLow, 0),
		mk("high", "h", task.PriorityHigh, time.Minute),
		mk("med", "m", task.PriorityMedium, 2*time.Minute),
	}

	desc := task.Apply(all, task.ListFilter{SortBy: task.SortByPriority, SortOrder: task.SortDesc})
	assert.Equal(t, []string{"high", "med", "low"}, ids(desc))

	asc := task.Apply(all, task.ListFilter{SortBy: task.SortByPriority, SortOrder: task.SortAsc})
	assert.Equal(t, []string{"low", "med", "high"}, ids(asc))
}

func TestApply_DueDateNullsLastBothDirections(t *testing.T) {
	early := mk("early", "e", task.PriorityLow, 0)
	early.DueDate = datePtr(task.NewDate(2026, 3, 1))
	late := mk("late", "l", task.PriorityLow, time.Minute)
	late.DueDate = datePtr(task.NewDate(2026, 4, 1))
	noneOld := mk("none-old", "n", task.PriorityLow, 2*time.Minute)
	noneNew := mk("none-new", "n", task.PriorityLow, 3*time.Minute)

	all := []task.Task{noneOld, late, noneNew, early}

	asc := task.Apply(all, task.ListFilter{SortBy: task.SortByDueDate, SortOrder: task.SortAsc})
	assert.Equal(t, []string{"early", "late", "none-new", "none-old"}, ids(asc))

	desc := task.Apply(all, task.ListFilter{SortBy: task.SortByDueDate, SortOrder: task.SortDesc})
	assert.Equal(t, []string{"late", "early", "none-new", "none-old"}, ids(desc))
}

func TestApply_DefaultOrderIsNewestFirstWithTiesByCreatedAt(t *testing.T) {
	all := []task.Task{
		mk("old", "o", task.PriorityHigh, 0),
		mk("new", "n", task.PriorityHigh, time.Hour),
		mk("mid", "m", task.PriorityHigh, time.Minute),
	}

	assert.Equal(t, []string{"new", "mid", "old"}, ids(task.Apply(all, task.ListFilter{})))
	assert.Equal(t, []string{"old", "mid", "new"}, ids(task.Apply(all, task.ListFilter{SortOrder: task.SortAsc})))

	// equal priority: tie broken by created_at descending regardless of direction
	byPrio := task.Apply(all, task.ListFilter{SortBy: task.SortByPriority, SortOrder: task.SortAsc})
	assert.Equal(t, []string{"new", "mid", "old"}, ids(byPrio))
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	all := []task.Task{mk("a", "a", task.PriorityLow, 0), mk("b", "b", task.PriorityHigh, time.Minute)}
	_ = task.Apply(all, task.ListFilter{SortBy: task.SortByPriority})
	assert.Equal(t, []string{"a", "b"}, ids(all))
}

func TestParseSortOptions(t *testing.T) {
	cases := []struct {
		in   string
		want task.SortBy
	}{
		{"", task.SortByCreatedAt},
		{"createdAt", task.SortByCreatedAt},
		{"priority", task.SortByPriority},
		{"due_date", task.SortByDueDate},
		{"dueDate", task.SortByDueDate},
	}
	for _, tc := range cases {
		got, err := task.ParseSortBy(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	_, err := task.ParseSortBy("title")
	assert.ErrorIs(t, err, task.ErrInvalidSortBy)

	for in, want := range map[string]task.SortOrder{"": task.SortDesc, "-1": task.SortDesc, "ASC": task.SortAsc, "1": task.SortAsc} {
		got, err := task.ParseSortOrder(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err = task.ParseSortOrder("sideways")
	assert.ErrorIs(t, err, task.ErrInvalidSortOrder)
}

func TestParseCompleted(t *testing.T) {
	got, err := task.ParseCompleted("")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = task.ParseCompleted("true")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, *got)

	got, err = task.ParseCompleted(" 0 ")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, *got)

	_, err = task.ParseCompleted("maybe")
	assert.ErrorIs(t, err, task.ErrInvalidCompleted)
}
