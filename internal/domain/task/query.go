package task

import (
	"slices"
	"strconv"
	"strings"

	"github.com/geocoder89/taskhub/internal/apperr"
)

type SortBy string

const (
	SortByCreatedAt SortBy = "created_at"
	SortByPriority  SortBy = "priority"
	SortByDueDate   SortBy = "due_date"
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

var (
	ErrInvalidSortBy    = apperr.Validation("sortBy", "sortBy must be one of created_at, priority, due_date")
	ErrInvalidSortOrder = apperr.Validation("sortOrder", "sortOrder must be asc or desc")
	ErrInvalidCompleted = apperr.Validation("completed", "completed must be true or false")
)

// with pointers if optional, it will be nil
type ListFilter struct {
	Completed *bool
	Category  *string
	Search    *string
	SortBy    SortBy
	SortOrder SortOrder
}

// ParseCompleted reads an optional completion flag; blank means "any".
func ParseCompleted(s string) (*bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return nil, ErrInvalidCompleted
	}
	return &b, nil
}

func ParseSortBy(s string) (SortBy, error) {
	switch strings.TrimSpace(s) {
	case "", "created_at", "createdAt":
		return SortByCreatedAt, nil
	case "priority":
		return SortByPriority, nil
	case "due_date", "dueDate":
		return SortByDueDate, nil
	default:
		return "", ErrInvalidSortBy
	}
}

// ParseSortOrder also accepts 1 and -1, the numeric form older clients send.
func ParseSortOrder(s string) (SortOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "desc", "descending", "-1":
		return SortDesc, nil
	case "asc", "ascending", "1":
		return SortAsc, nil
	default:
		return "", ErrInvalidSortOrder
	}
}

// Normalized fills defaults and turns blank text options into absent ones.
func (f ListFilter) Normalized() ListFilter {
	if f.SortBy == "" {
		f.SortBy = SortByCreatedAt
	}
	if f.SortOrder == "" {
		f.SortOrder = SortDesc
	}
	if f.Category != nil {
		c := normalizeLabel(*f.Category)
		if c == "" {
			f.Category = nil
		} else {
			f.Category = &c
		}
	}
	if f.Search != nil {
		s := strings.TrimSpace(*f.Search)
		if s == "" {
			f.Search = nil
		} else {
			f.Search = &s
		}
	}
	return f
}

// Match reports whether t passes every filter option. Ownership is not
// checked here; stores only ever hand the engine the owner's own tasks.
func (f ListFilter) Match(t Task) bool {
	if f.Completed != nil && t.Completed != *f.Completed {
		return false
	}
	if f.Category != nil && t.Category != *f.Category {
		return false
	}
	if f.Search != nil && !matchesSearch(t, *f.Search) {
		return false
	}
	return true
}

func matchesSearch(t Task, search string) bool {
	needle := strings.ToLower(search)

	if strings.Contains(strings.ToLower(t.Title), needle) ||
		strings.Contains(strings.ToLower(t.Description), needle) {
		return true
	}

	for _, tag := range t.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}

// Compare orders a before b (negative) under f's sort key and direction.
// Tasks without a due date sort after dated ones in both directions; ties
// fall back to newest first, then id, so the order is total.
func (f ListFilter) Compare(a, b Task) int {
	c := 0

	switch f.SortBy {
	case SortByPriority:
		c = a.Priority.Rank() - b.Priority.Rank()
	case SortByDueDate:
		switch {
		case a.DueDate == nil && b.DueDate == nil:
		case a.DueDate == nil:
			return 1
		case b.DueDate == nil:
			return -1
		default:
			c = a.DueDate.Compare(*b.DueDate)
		}
	default:
		c = a.CreatedAt.Compare(b.CreatedAt)
	}

	if f.SortOrder != SortAsc {
		c = -c
	}
	if c != 0 {
		return c
	}

	if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}

// Apply filters and orders tasks without touching the input slice.
func Apply(tasks []Task, f ListFilter) []Task {
	f = f.Normalized()

	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if f.Match(t) {
			out = append(out, t)
		}
	}

	slices.SortFunc(out, f.Compare)
	return out
}
