package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"task-manager/internal/models"
)

// Tasks is the task service used by the task handlers.
type Tasks interface {
	Create(ctx context.Context, owner uuid.UUID, description string, dueAt *time.Time) (*models.Task, error)
	Get(ctx context.Context, actor, id uuid.UUID) (*models.Task, error)
	List(ctx context.Context, actor uuid.UUID) ([]models.Task, error)
	PatchStatus(ctx context.Context, actor, id uuid.UUID, status string) (*models.Task, error)
	Update(ctx context.Context, actor, id uuid.UUID, upd models.TaskUpdate) (*models.Task, error)
	Delete(ctx context.Context, actor, id uuid.UUID, now time.Time) error
}

// TaskHandler serves /api/tasks.
type TaskHandler struct {
	tasks Tasks
	now   func() time.Time
}

func NewTaskHandler(tasks Tasks) *TaskHandler {
	return &TaskHandler{tasks: tasks, now: time.Now}
}

// dueDate is decoded as RFC 3339.
type createBody struct {
	Description string     `json:"description"`
	DueDate     *time.Time `json:"dueDate"`
}

type updateBody struct {
	Description *string    `json:"description"`
	DueDate     *time.Time `json:"dueDate"`
	Status      *string    `json:"status"`
}

// List returns the caller's tasks. An empty list is still 200.
func (h *TaskHandler) List(c *gin.Context) {
	uid, authed := actor(c)
	if !authed {
		return
	}
	tasks, err := h.tasks.List(c.Request.Context(), uid)
	if err != nil {
		respondError(c, "List tasks", err)
		return
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	msg := "Tasks found successfully."
	if len(tasks) == 0 {
		msg = "No tasks found."
	}
	ok(c, http.StatusOK, msg, gin.H{"tasks": tasks})
}

// Get returns one of the caller's tasks.
func (h *TaskHandler) Get(c *gin.Context) {
	uid, authed := actor(c)
	if !authed {
		return
	}
	id, valid := taskID(c)
	if !valid {
		return
	}
	t, err := h.tasks.Get(c.Request.Context(), uid, id)
	if err != nil {
		respondError(c, "Get task", err)
		return
	}
	ok(c, http.StatusOK, "Task found successfully.", gin.H{"task": t})
}

// Create adds a task for the caller. 201 on success.
func (h *TaskHandler) Create(c *gin.Context) {
	uid, authed := actor(c)
	if !authed {
		return
	}
	var body createBody
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	t, err := h.tasks.Create(c.Request.Context(), uid, body.Description, body.DueDate)
	if err != nil {
		respondError(c, "Create task", err)
		return
	}
	ok(c, http.StatusCreated, "Task created successfully.", gin.H{"task": t})
}

// PatchStatus sets only the status.
func (h *TaskHandler) PatchStatus(c *gin.Context) {
	uid, authed := actor(c)
	if !authed {
		return
	}
	id, valid := taskID(c)
	if !valid {
		return
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, "Invalid status value.")
		return
	}
	t, err := h.tasks.PatchStatus(c.Request.Context(), uid, id, body.Status)
	if err != nil {
		respondError(c, "Patch task status", err)
		return
	}
	ok(c, http.StatusOK, "Status updated", gin.H{"task": t})
}

// Update applies any of description, dueDate and status.
func (h *TaskHandler) Update(c *gin.Context) {
	uid, authed := actor(c)
	if !authed {
		return
	}
	id, valid := taskID(c)
	if !valid {
		return
	}
	var body updateBody
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	t, err := h.tasks.Update(c.Request.Context(), uid, id, models.TaskUpdate{
		Description: body.Description,
		DueAt:       body.DueDate,
		Status:      body.Status,
	})
	if err != nil {
		respondError(c, "Update task", err)
		return
	}
	ok(c, http.StatusOK, "Task updated successfully.", gin.H{"task": t})
}

// Delete removes a completed, cancelled or past-due task.
func (h *TaskHandler) Delete(c *gin.Context) {
	uid, authed := actor(c)
	if !authed {
		return
	}
	id, valid := taskID(c)
	if !valid {
		return
	}
	if err := h.tasks.Delete(c.Request.Context(), uid, id, h.now()); err != nil {
		respondError(c, "Delete task", err)
		return
	}
	ok(c, http.StatusOK, "Task deleted successfully.", nil)
}
