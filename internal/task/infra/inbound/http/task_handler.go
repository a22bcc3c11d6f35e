package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/davicafu/hexaquery/internal/task/application"
	taskDomain "github.com/davicafu/hexaquery/internal/task/domain"
	"github.com/davicafu/hexaquery/pkg/utils"
)

const statsWindow = 7 * 24 * time.Hour

// TaskHandler encapsula los endpoints HTTP relacionados con Task.
type TaskHandler struct {
	service *application.TaskService
}

// NewTaskHandler crea un nuevo TaskHandler.
func NewTaskHandler(service *application.TaskService) *TaskHandler {
	return &TaskHandler{service: service}
}

// --- Handlers CRUD ---

// CreateTask endpoint POST /tasks
func (h *TaskHandler) CreateTask(c *gin.Context) {
	var req struct {
		Title       string    `json:"title" binding:"required"`
		Description string    `json:"description"`
		AssigneeID  uuid.UUID `json:"assigneeId" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendBadRequest(c, err.Error())
		return
	}

	task, err := h.service.CreateTask(c.Request.Context(), req.Title, req.Description, req.AssigneeID)
	if err != nil {
		sendTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, task)
}

// GetTask endpoint GET /tasks/:id
func (h *TaskHandler) GetTask(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}

	task, err := h.service.GetTaskByID(c.Request.Context(), id)
	if err != nil {
		sendTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

// UpdateTask endpoint PUT /tasks/:id
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}

	// Usamos punteros para que los campos sean opcionales en el JSON
	var req struct {
		Title       *string `json:"title,omitempty"`
		Description *string `json:"description,omitempty"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendBadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	current, err := h.service.GetTaskByID(ctx, id)
	if err != nil {
		sendTaskError(c, err)
		return
	}

	// Aplicamos los cambios si se proporcionaron
	title, description := current.Title, current.Description
	if req.Title != nil {
		title = *req.Title
	}
	if req.Description != nil {
		description = *req.Description
	}

	task, err := h.service.EditTask(ctx, id, title, description)
	if err != nil {
		sendTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

// CompleteTask endpoint POST /tasks/:id/complete
func (h *TaskHandler) CompleteTask(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}

	task, err := h.service.CompleteTask(c.Request.Context(), id)
	if err != nil {
		sendTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

// DeleteTask endpoint DELETE /tasks/:id
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteTask(c.Request.Context(), id); err != nil {
		sendTaskError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// --- Listados ---

// ListTasks endpoint GET /tasks. La query string completa es la consulta:
// filtros campo=v1|v2||op, query, sortBy, sortDirection, pageNumber y pageSize.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	page, err := h.service.ListTasks(c.Request.Context(), c.Request.URL.RawQuery)
	if err != nil {
		utils.SendQueryError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// ListUserTasks endpoint GET /users/:id/tasks. Con pending=true solo devuelve
// las pendientes.
func (h *TaskHandler) ListUserTasks(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.SendBadRequest(c, "invalid user id")
		return
	}

	// pending no es un campo de Task: se saca de la consulta antes de pasarla.
	values := c.Request.URL.Query()
	pending := values.Get("pending") == "true"
	raw := c.Request.URL.RawQuery
	if values.Has("pending") {
		values.Del("pending")
		raw = values.Encode()
	}

	ctx := c.Request.Context()
	list := h.service.ListTasksForAssignee
	if pending {
		list = h.service.ListPendingTasksForUser
	}

	page, err := list(ctx, userID, raw)
	if err != nil {
		utils.SendQueryError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// ListTaskHistory endpoint GET /tasks/history, con la misma sintaxis que /tasks
// sobre los campos del histórico.
func (h *TaskHandler) ListTaskHistory(c *gin.Context) {
	page, err := h.service.ListTaskHistory(c.Request.Context(), c.Request.URL.RawQuery)
	if err != nil {
		if errors.Is(err, taskDomain.ErrAnalyticsDisabled) {
			sendTaskError(c, err)
			return
		}
		utils.SendQueryError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetStats endpoint GET /tasks/stats?start=&end= (RFC3339 o YYYY-MM-DD). Por
// defecto, los últimos siete días.
func (h *TaskHandler) GetStats(c *gin.Context) {
	end := time.Now().UTC()
	start := end.Add(-statsWindow)

	var err error
	if raw := c.Query("start"); raw != "" {
		if start, err = parseDate(raw); err != nil {
			utils.SendBadRequest(c, "invalid start, use RFC3339 or YYYY-MM-DD")
			return
		}
	}
	if raw := c.Query("end"); raw != "" {
		if end, err = parseDate(raw); err != nil {
			utils.SendBadRequest(c, "invalid end, use RFC3339 or YYYY-MM-DD")
			return
		}
	}
	if end.Before(start) {
		utils.SendBadRequest(c, "end must not be before start")
		return
	}

	stats, err := h.service.GetStats(c.Request.Context(), start, end)
	if err != nil {
		sendTaskError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// --- Helpers ---

func taskID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.SendBadRequest(c, "invalid task id")
		return uuid.Nil, false
	}
	return id, true
}

func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	return time.Parse("2006-01-02", raw)
}

func sendTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, taskDomain.ErrTaskNotFound):
		utils.SendNotFound(c, err.Error())
	case errors.Is(err, taskDomain.ErrInvalidTask):
		utils.SendBadRequest(c, err.Error())
	case errors.Is(err, taskDomain.ErrTaskAlreadyExists), errors.Is(err, taskDomain.ErrTaskCannotComplete):
		utils.SendConflict(c, err.Error())
	case errors.Is(err, taskDomain.ErrAnalyticsDisabled):
		utils.SendError(c, http.StatusServiceUnavailable, err.Error())
	default:
		utils.SendInternalServerError(c, err.Error())
	}
}
