package task

import (
	"strings"
	"time"

	"github.com/geocoder89/taskhub/internal/apperr"
	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// Rank orders priorities High > Medium > Low.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

func (p Priority) Valid() bool { return p.Rank() > 0 }

type Task struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Priority    Priority  `json:"priority"`
	DueDate     *Date     `json:"dueDate"`
	Category    string    `json:"category"`
	Tags        []string  `json:"tags"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

var (
	ErrNotFound        = apperr.New(apperr.KindNotFound, "task not found")
	ErrTitleRequired   = apperr.Validation("title", "title must not be empty")
	ErrInvalidPriority = apperr.Validation("priority", "priority must be one of High, Medium, Low")
)

// Owner and creation time are not part of either payload: they come from
// the session and the clock, so client-supplied values never reach a task.
type CreateTaskRequest struct {
	Title       string   `json:"title" binding:"required,max=200"`
	Description string   `json:"description" binding:"max=2000"`
	Priority    Priority `json:"priority" binding:"omitempty,oneof=High Medium Low"`
	DueDate     *Date    `json:"dueDate"`
	Category    string   `json:"category" binding:"max=100"`
	Tags        []string `json:"tags" binding:"omitempty,max=50,dive,max=50"`
}

// nil fields are left untouched. DueDate is the exception: a present null
// clears it.
type UpdateTaskRequest struct {
	Title       *string   `json:"title" binding:"omitempty,max=200"`
	Description *string   `json:"description" binding:"omitempty,max=2000"`
	Priority    *Priority `json:"priority" binding:"omitempty,oneof=High Medium Low"`
	DueDate     DatePatch `json:"dueDate,omitzero"`
	Category    *string   `json:"category" binding:"omitempty,max=100"`
	Tags        []string  `json:"tags" binding:"omitempty,max=50,dive,max=50"`
	Completed   *bool     `json:"completed"`
}

// NormalizeTags trims entries, drops blanks and keeps the first occurrence
// of each tag in its original position. Tags are compared in Unicode NFC
// form, so composed and decomposed spellings of one word collapse.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))

	for _, tag := range tags {
		tag = normalizeLabel(tag)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}

	return out
}

// normalizeLabel is applied to tags and categories, which are grouped and
// compared byte for byte.
func normalizeLabel(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

func normalizeTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", ErrTitleRequired
	}
	return title, nil
}

func normalizePriority(p Priority) (Priority, error) {
	if p == "" {
		return PriorityMedium, nil
	}
	if !p.Valid() {
		return "", ErrInvalidPriority
	}
	return p, nil
}

// New builds a task owned by ownerID from a create payload.
func New(ownerID string, req CreateTaskRequest, now time.Time) (Task, error) {
	title, err := normalizeTitle(req.Title)
	if err != nil {
		return Task{}, err
	}

	priority, err := normalizePriority(req.Priority)
	if err != nil {
		return Task{}, err
	}

	now = now.UTC().Truncate(time.Microsecond)

	return Task{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		Priority:    priority,
		DueDate:     req.DueDate,
		Category:    normalizeLabel(req.Category),
		Tags:        NormalizeTags(req.Tags),
		Completed:   false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Merge returns t with the fields present in req applied. The receiver is not
// modified, so a failed validation leaves no partial change behind.
func (t Task) Merge(req UpdateTaskRequest, now time.Time) (Task, error) {
	out := t
	out.Tags = NormalizeTags(t.Tags)

	if req.Title != nil {
		title, err := normalizeTitle(*req.Title)
		if err != nil {
			return Task{}, err
		}
		out.Title = title
	}

	if req.Priority != nil {
		if !req.Priority.Valid() {
			return Task{}, ErrInvalidPriority
		}
		out.Priority = *req.Priority
	}

	if req.Description != nil {
		out.Description = strings.TrimSpace(*req.Description)
	}

	if req.DueDate.Set {
		out.DueDate = nil
		if req.DueDate.Value != nil {
			d := *req.DueDate.Value
			out.DueDate = &d
		}
	}

	if req.Category != nil {
		out.Category = normalizeLabel(*req.Category)
	}

	if req.Tags != nil {
		out.Tags = NormalizeTags(req.Tags)
	}

	if req.Completed != nil {
		out.Completed = *req.Completed
	}

	out.UpdatedAt = now.UTC().Truncate(time.Microsecond)

	return out, nil
}

// Normalize re-applies the store invariants to an already built task.
func (t Task) Normalize() (Task, error) {
	title, err := normalizeTitle(t.Title)
	if err != nil {
		return Task{}, err
	}
	priority, err := normalizePriority(t.Priority)
	if err != nil {
		return Task{}, err
	}

	t.Title = title
	t.Priority = priority
	t.Tags = NormalizeTags(t.Tags)
	return t, nil
}
