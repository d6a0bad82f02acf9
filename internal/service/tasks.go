package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/geocoder89/taskhub/internal/apperr"
	"github.com/geocoder89/taskhub/internal/domain/task"
	"github.com/geocoder89/taskhub/internal/observability"
	"github.com/go-playground/validator/v10"
)

var ErrNoOwner = apperr.New(apperr.KindUnauthorized, "authentication required")

// TaskStore persists tasks. Every call is scoped to one owner; a task that
// exists but belongs to someone else is reported as task.ErrNotFound.
type TaskStore interface {
	Create(ctx context.Context, t task.Task) (task.Task, error)
	GetByID(ctx context.Context, ownerID, id string) (task.Task, error)
	List(ctx context.Context, ownerID string, filter task.ListFilter) ([]task.Task, error)
	Update(ctx context.Context, ownerID, id string, req task.UpdateTaskRequest, now time.Time) (task.Task, error)
	SetCompleted(ctx context.Context, ownerID, id string, completed bool, now time.Time) (task.Task, error)
	Delete(ctx context.Context, ownerID, id string) error
}

// StatsCache holds one owner's statistics for one calendar day. Version is
// the owner's invalidation generation; Set must not keep numbers computed
// under a generation that Invalidate has since moved past.
type StatsCache interface {
	Get(ctx context.Context, ownerID string, day task.Date) (task.Stats, bool, error)
	Version(ctx context.Context, ownerID string) (int64, error)
	Set(ctx context.Context, ownerID string, day task.Date, version int64, s task.Stats) error
	Invalidate(ctx context.Context, ownerID string) error
}

type TaskService struct {
	store    TaskStore
	cache    StatsCache
	validate *validator.Validate
	loc      *time.Location
	now      func() time.Time
	prom     *observability.Prom
}

type TaskOption func(*TaskService)

func WithStatsCache(c StatsCache) TaskOption {
	return func(s *TaskService) { s.cache = c }
}

// WithLocation sets the zone whose calendar day decides "overdue".
func WithLocation(loc *time.Location) TaskOption {
	return func(s *TaskService) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithClock(now func() time.Time) TaskOption {
	return func(s *TaskService) { s.now = now }
}

func WithMetrics(p *observability.Prom) TaskOption {
	return func(s *TaskService) { s.prom = p }
}

func NewTaskService(store TaskStore, opts ...TaskOption) *TaskService {
	s := &TaskService{
		store:    store,
		validate: newValidator(),
		loc:      time.UTC,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *TaskService) Create(ctx context.Context, ownerID string, req task.CreateTaskRequest) (out task.Task, err error) {
	defer func() { s.recordMutation("create", err) }()

	if ownerID == "" {
		return task.Task{}, ErrNoOwner
	}
	if err = validateInput(s.validate, req); err != nil {
		return task.Task{}, err
	}

	t, err := task.New(ownerID, req, s.now())
	if err != nil {
		return task.Task{}, err
	}

	out, err = s.store.Create(ctx, t)
	if err != nil {
		return task.Task{}, storeErr("create task", err)
	}

	s.invalidate(ctx, ownerID)
	return out, nil
}

func (s *TaskService) Get(ctx context.Context, ownerID, id string) (task.Task, error) {
	if ownerID == "" {
		return task.Task{}, ErrNoOwner
	}

	t, err := s.store.GetByID(ctx, ownerID, id)
	if err != nil {
		return task.Task{}, storeErr("get task", err)
	}
	return t, nil
}

func (s *TaskService) List(ctx context.Context, ownerID string, filter task.ListFilter) ([]task.Task, error) {
	if ownerID == "" {
		return nil, ErrNoOwner
	}

	items, err := s.store.List(ctx, ownerID, filter.Normalized())
	if err != nil {
		return nil, storeErr("list tasks", err)
	}
	return items, nil
}

// Update applies only the fields present in req. Owner and creation time
// cannot be changed through it.
func (s *TaskService) Update(ctx context.Context, ownerID, id string, req task.UpdateTaskRequest) (out task.Task, err error) {
	defer func() { s.recordMutation("update", err) }()

	if ownerID == "" {
		return task.Task{}, ErrNoOwner
	}
	if err = validateInput(s.validate, req); err != nil {
		return task.Task{}, err
	}

	out, err = s.store.Update(ctx, ownerID, id, req, s.now())
	if err != nil {
		return task.Task{}, storeErr("update task", err)
	}

	s.invalidate(ctx, ownerID)
	return out, nil
}

// SetCompleted is idempotent: repeating it with the same value changes nothing.
func (s *TaskService) SetCompleted(ctx context.Context, ownerID, id string, completed bool) (out task.Task, err error) {
	defer func() { s.recordMutation("complete", err) }()

	if ownerID == "" {
		return task.Task{}, ErrNoOwner
	}

	out, err = s.store.SetCompleted(ctx, ownerID, id, completed, s.now())
	if err != nil {
		return task.Task{}, storeErr("set completed", err)
	}

	s.invalidate(ctx, ownerID)
	return out, nil
}

func (s *TaskService) Delete(ctx context.Context, ownerID, id string) (err error) {
	defer func() { s.recordMutation("delete", err) }()

	if ownerID == "" {
		return ErrNoOwner
	}

	if err = s.store.Delete(ctx, ownerID, id); err != nil {
		return storeErr("delete task", err)
	}

	s.invalidate(ctx, ownerID)
	return nil
}

// Stats aggregates over the owner's whole task set, not a filtered view.
// A cache failure only costs a recomputation.
func (s *TaskService) Stats(ctx context.Context, ownerID string) (task.Stats, error) {
	if ownerID == "" {
		return task.Stats{}, ErrNoOwner
	}

	today := s.Today()

	var (
		version   int64
		cacheable bool
	)
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, ownerID, today)
		switch {
		case err != nil:
			s.recordCache("error")
			slog.Default().WarnContext(ctx, "stats cache read failed", "err", err)
		case ok:
			s.recordCache("hit")
			return cached, nil
		default:
			s.recordCache("miss")
		}

		// read before the list so a write racing this computation wins
		if v, err := s.cache.Version(ctx, ownerID); err != nil {
			slog.Default().WarnContext(ctx, "stats cache version read failed", "err", err)
		} else {
			version, cacheable = v, true
		}
	}

	all, err := s.store.List(ctx, ownerID, task.ListFilter{})
	if err != nil {
		return task.Stats{}, storeErr("list tasks for stats", err)
	}

	stats := task.ComputeStats(all, today)

	if cacheable {
		if err := s.cache.Set(ctx, ownerID, today, version, stats); err != nil {
			slog.Default().WarnContext(ctx, "stats cache write failed", "err", err)
		}
	}

	return stats, nil
}

// Today is the current calendar day in the configured location.
func (s *TaskService) Today() task.Date {
	return task.DateOf(s.now().In(s.loc))
}

func (s *TaskService) invalidate(ctx context.Context, ownerID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, ownerID); err != nil {
		slog.Default().ErrorContext(ctx, "stats cache invalidation failed", "err", err)
	}
}

func (s *TaskService) recordMutation(op string, err error) {
	if s.prom == nil {
		return
	}
	s.prom.TaskMutations.WithLabelValues(op, observability.Outcome(err)).Inc()
}

func (s *TaskService) recordCache(result string) {
	if s.prom == nil {
		return
	}
	s.prom.StatsCacheHits.WithLabelValues(result).Inc()
}

// storeErr passes classified errors through and hides everything else
// behind an internal error that still carries the cause for logging.
func storeErr(op string, err error) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	return apperr.Internal(op, err)
}
