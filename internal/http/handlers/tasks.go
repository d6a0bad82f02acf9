package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/geocoder89/taskhub/internal/domain/task"
	"github.com/geocoder89/taskhub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type TaskUseCases interface {
	Create(ctx context.Context, ownerID string, req task.CreateTaskRequest) (task.Task, error)
	Get(ctx context.Context, ownerID, id string) (task.Task, error)
	List(ctx context.Context, ownerID string, filter task.ListFilter) ([]task.Task, error)
	Update(ctx context.Context, ownerID, id string, req task.UpdateTaskRequest) (task.Task, error)
	SetCompleted(ctx context.Context, ownerID, id string, completed bool) (task.Task, error)
	Delete(ctx context.Context, ownerID, id string) error
	Stats(ctx context.Context, ownerID string) (task.Stats, error)
}

type TasksHandler struct {
	tasks TaskUseCases
}

func NewTasksHandler(tasks TaskUseCases) *TasksHandler {
	return &TasksHandler{tasks: tasks}
}

const taskOpTimeout = 3 * time.Second

// owner returns the caller's id or answers 401 itself.
func owner(ctx *gin.Context) (string, bool) {
	id, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "Authentication required")
		return "", false
	}
	return id, true
}

func (h *TasksHandler) CreateTask(ctx *gin.Context) {
	ownerID, ok := owner(ctx)
	if !ok {
		return
	}

	var req task.CreateTaskRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), taskOpTimeout)
	defer cancel()

	created, err := h.tasks.Create(cctx, ownerID, req)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.Header("Location", "/api/tasks/"+created.ID)
	ctx.JSON(http.StatusCreated, created)
}

// parseListFilter reads ?completed=&category=&search=&sortBy=&sortOrder=.
// The snake_case spellings sort_by and sort_order are accepted too.
func parseListFilter(ctx *gin.Context) (task.ListFilter, error) {
	var f task.ListFilter

	completed, err := task.ParseCompleted(ctx.Query("completed"))
	if err != nil {
		return f, err
	}
	f.Completed = completed

	if c, ok := ctx.GetQuery("category"); ok && c != "" {
		f.Category = &c
	}
	if s, ok := ctx.GetQuery("search"); ok {
		f.Search = &s
	}

	sortBy, err := task.ParseSortBy(firstQuery(ctx, "sortBy", "sort_by"))
	if err != nil {
		return f, err
	}
	f.SortBy = sortBy

	sortOrder, err := task.ParseSortOrder(firstQuery(ctx, "sortOrder", "sort_order"))
	if err != nil {
		return f, err
	}
	f.SortOrder = sortOrder

	return f.Normalized(), nil
}

func firstQuery(ctx *gin.Context, keys ...string) string {
	for _, k := range keys {
		if v := ctx.Query(k); v != "" {
			return v
		}
	}
	return ""
}

func (h *TasksHandler) ListTasks(ctx *gin.Context) {
	ownerID, ok := owner(ctx)
	if !ok {
		return
	}

	filter, err := parseListFilter(ctx)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), taskOpTimeout)
	defer cancel()

	items, err := h.tasks.List(cctx, ownerID, filter)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, gin.H{
		"items": items,
		"count": len(items),
	})
}

func (h *TasksHandler) GetTask(ctx *gin.Context) {
	ownerID, ok := owner(ctx)
	if !ok {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), taskOpTimeout)
	defer cancel()

	t, err := h.tasks.Get(cctx, ownerID, ctx.Param("id"))
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, t)
}

// UpdateTask serves both PUT and PATCH with merge semantics: absent or null
// fields keep their stored value, except dueDate where null clears it.
func (h *TasksHandler) UpdateTask(ctx *gin.Context) {
	ownerID, ok := owner(ctx)
	if !ok {
		return
	}

	var req task.UpdateTaskRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), taskOpTimeout)
	defer cancel()

	updated, err := h.tasks.Update(cctx, ownerID, ctx.Param("id"), req)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, updated)
}

type completeRequest struct {
	Completed *bool `json:"completed" binding:"required"`
}

// CompleteTask sets the completion flag to an explicit target, taken from
// ?completed= or from a {"completed": bool} body.
func (h *TasksHandler) CompleteTask(ctx *gin.Context) {
	ownerID, ok := owner(ctx)
	if !ok {
		return
	}

	var target bool
	if raw, present := ctx.GetQuery("completed"); present {
		parsed, err := task.ParseCompleted(raw)
		if err != nil || parsed == nil {
			RespondAppError(ctx, task.ErrInvalidCompleted)
			return
		}
		target = *parsed
	} else {
		var req completeRequest
		if !BindJSON(ctx, &req) {
			return
		}
		target = *req.Completed
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), taskOpTimeout)
	defer cancel()

	updated, err := h.tasks.SetCompleted(cctx, ownerID, ctx.Param("id"), target)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, updated)
}

func (h *TasksHandler) DeleteTask(ctx *gin.Context) {
	ownerID, ok := owner(ctx)
	if !ok {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), taskOpTimeout)
	defer cancel()

	if err := h.tasks.Delete(cctx, ownerID, ctx.Param("id")); err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

func (h *TasksHandler) Stats(ctx *gin.Context) {
	ownerID, ok := owner(ctx)
	if !ok {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), taskOpTimeout)
	defer cancel()

	stats, err := h.tasks.Stats(cctx, ownerID)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, stats)
}
