package handlers

import (
	"errors"
	"io"
	"net/http"

	"taskora/internal/domain"
	"taskora/internal/logger"
	"taskora/internal/service"

	"github.com/gin-gonic/gin"
)

// GET /api/tasks
func (h *TaskHandler) List(c *gin.Context) {
	tasks, err := h.tasks.ListTasks(c.Request.Context())
	if err != nil {
		h.fail(c, err, "Server error while fetching tasks")
		return
	}
	c.JSON(http.StatusOK, tasks)
}

// GET /api/tasks/:id
func (h *TaskHandler) Get(c *gin.Context) {
	task, err := h.tasks.GetTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, "Server error while fetching task")
		return
	}
	c.JSON(http.StatusOK, task)
}

// POST /api/tasks
func (h *TaskHandler) Create(c *gin.Context) {
	body, ok := bindFields(c)
	if !ok {
		return
	}

	title, ok := body["title"].(string)
	if !ok {
		h.fail(c, domain.ErrTitleRequired, "")
		return
	}
	in := service.CreateTaskInput{Title: title}
	if desc, ok := body["description"].(string); ok {
		in.Description = desc
	}
	switch status := body["status"].(type) {
	case nil:
	case string:
		in.Status = status
	default:
		h.fail(c, domain.ErrInvalidStatus, "")
		return
	}

	task, err := h.tasks.CreateTask(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err, "Server error while creating task")
		return
	}
	c.JSON(http.StatusCreated, task)
}

// PUT /api/tasks/:id
// Fields that are absent or not strings are ignored.
func (h *TaskHandler) Update(c *gin.Context) {
	body, ok := bindFields(c)
	if !ok {
		return
	}

	in := service.UpdateTaskInput{
		Title:       stringField(body, "title"),
		Description: stringField(body, "description"),
		Status:      stringField(body, "status"),
	}

	task, err := h.tasks.UpdateTask(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		h.fail(c, err, "Server error while updating task")
		return
	}
	c.JSON(http.StatusOK, task)
}

// DELETE /api/tasks/:id
func (h *TaskHandler) Delete(c *gin.Context) {
	if err := h.tasks.DeleteTask(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err, "Server error while deleting task")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}

// fail writes the client-facing message for err. Unknown errors are logged
// and answered with serverMsg so driver details never leave the process.
func (h *TaskHandler) fail(c *gin.Context, err error, serverMsg string) {
	switch {
	case errors.Is(err, domain.ErrTitleRequired):
		c.JSON(http.StatusBadRequest, gin.H{"message": domain.ErrTitleRequired.Error()})
	case errors.Is(err, domain.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, gin.H{"message": domain.ErrInvalidStatus.Error()})
	case errors.Is(err, domain.ErrDuplicateTitle):
		c.JSON(http.StatusBadRequest, gin.H{"message": domain.ErrDuplicateTitle.Error()})
	case errors.Is(err, domain.ErrTaskNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": domain.ErrTaskNotFound.Error()})
	default:
		logger.WithContext(c.Request.Context()).Error(serverMsg, "error", err, "task_id", c.Param("id"))
		c.JSON(http.StatusInternalServerError, gin.H{"message": serverMsg})
	}
}

// bindFields decodes a JSON object body. An empty body counts as {}.
func bindFields(c *gin.Context) (map[string]any, bool) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return nil, false
	}
	if body == nil {
		body = map[string]any{}
	}
	return body, true
}

func stringField(body map[string]any, key string) *string {
	if s, ok := body[key].(string); ok {
		return &s
	}
	return nil
}
