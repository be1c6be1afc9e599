package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/taskhub/internal/core/domain"
	"github.com/99minutos/taskhub/internal/core/ports"
)

// IdempotencyKeyHeader lets clients retry POST /tasks/ safely.
const IdempotencyKeyHeader = "Idempotency-Key"

type TaskHandler struct {
	taskService ports.TaskService
}

func NewTaskHandler(taskService ports.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

type createTaskRequest struct {
	Title       string  `json:"title" validate:"required"`
	Description *string `json:"description,omitempty"`
	Status      string  `json:"status,omitempty"`
}

type updateTaskRequest struct {
	Status string `json:"status" validate:"required"`
}

// Create stores a task owned by the caller.
//
// @Summary      Create a task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string             false  "Client retry key"
// @Param        body             body      createTaskRequest  true   "Task"
// @Success      201              {object}  domain.Task
// @Failure      401              {object}  map[string]string
// @Failure      422              {object}  map[string]string
// @Failure      503              {object}  map[string]string
// @Router       /tasks/ [post]
func (h *TaskHandler) Create(c echo.Context) error {
	caller, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req createTaskRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	task, err := h.taskService.CreateTask(c.Request().Context(), caller, ports.CreateTaskInput{
		Title:          req.Title,
		Description:    req.Description,
		Status:         domain.TaskStatus(req.Status),
		IdempotencyKey: c.Request().Header.Get(IdempotencyKeyHeader),
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, task)
}

// List returns the caller's tasks, or every task for admins.
//
// @Summary      List tasks
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.Task
// @Failure      401  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /tasks/ [get]
func (h *TaskHandler) List(c echo.Context) error {
	caller, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	tasks, err := h.taskService.ListTasks(c.Request().Context(), caller)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, tasks)
}

// Update changes a task's status.
//
// @Summary      Update task status
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                true  "Task ID"
// @Param        body  body      updateTaskRequest  true  "New status"
// @Success      200   {object}  domain.Task
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /tasks/{id} [patch]
func (h *TaskHandler) Update(c echo.Context) error {
	caller, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	id, err := taskID(c)
	if err != nil {
		return err
	}

	var req updateTaskRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	task, err := h.taskService.UpdateTask(c.Request().Context(), caller, id, domain.TaskStatus(req.Status))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, task)
}

// Delete removes a task. Admin only.
//
// @Summary      Delete a task
// @Tags         tasks
// @Security     BearerAuth
// @Param        id   path  int  true  "Task ID"
// @Success      204
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /tasks/{id} [delete]
func (h *TaskHandler) Delete(c echo.Context) error {
	caller, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	id, err := taskID(c)
	if err != nil {
		return err
	}

	if err := h.taskService.DeleteTask(c.Request().Context(), caller, id); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

func taskID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusUnprocessableEntity, "task id must be an integer")
	}
	return id, nil
}
