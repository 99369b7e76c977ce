package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	domain "github.com/zeinputraa/simple-todo-app/domain/todo"
	"github.com/zeinputraa/simple-todo-app/modules/todostore"
)

// setupRoutes configures all HTTP routes.
func (m *APIModule) setupRoutes(app *fiber.App) {
	app.Get("/health", m.healthHandler)

	api := app.Group("/api/v1")

	todos := api.Group("/todos")
	todos.Get("/", m.listTodos)
	todos.Post("/", m.addTodo)
	todos.Post("/clear-completed", m.clearCompleted)
	todos.Post("/:id/toggle", m.toggleTodo)
	todos.Delete("/:id", m.deleteTodo)

	store := api.Group("/storage")
	store.Get("/export", m.exportTodos)
	store.Post("/import", m.importTodos)
	store.Delete("/", m.clearStorage)
	store.Get("/stats", m.storageStats)
	store.Get("/backups", m.listBackups)
	store.Post("/backups", m.createBackup)
	store.Post("/backups/:key/restore", m.restoreBackup)
	store.Delete("/backups/:key", m.deleteBackup)

	api.Get("/activity", m.recentActivity)
}

// healthHandler handles GET /health.
func (m *APIModule) healthHandler(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status: "healthy",
		Details: map[string]any{
			"module": "api",
			"port":   m.port,
		},
	})
}

// listTodos handles GET /api/v1/todos?filter=all|active|completed.
func (m *APIModule) listTodos(c *fiber.Ctx) error {
	resp, err := m.todos.List(c.UserContext(), c.Query("filter"))
	if err != nil {
		return m.handleError(c, err)
	}
	return c.JSON(TodoListResponse{
		Filter: resp.Filter,
		Todos:  resp.Todos,
		Counts: resp.Counts,
	})
}

// addTodo handles POST /api/v1/todos.
func (m *APIModule) addTodo(c *fiber.Ctx) error {
	var req AddTodoRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
	}

	t, err := m.todos.Add(c.UserContext(), req.Text)
	if err != nil {
		return m.handleError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(t)
}

// toggleTodo handles POST /api/v1/todos/:id/toggle.
func (m *APIModule) toggleTodo(c *fiber.Ctx) error {
	t, err := m.todos.Toggle(c.UserContext(), c.Params("id"))
	if err != nil {
		return m.handleError(c, err)
	}
	return c.JSON(t)
}

// deleteTodo handles DELETE /api/v1/todos/:id.
func (m *APIModule) deleteTodo(c *fiber.Ctx) error {
	if err := m.todos.Delete(c.UserContext(), c.Params("id")); err != nil {
		return m.handleError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// clearCompleted handles POST /api/v1/todos/clear-completed.
func (m *APIModule) clearCompleted(c *fiber.Ctx) error {
	removed, err := m.todos.ClearCompleted(c.UserContext())
	if err != nil {
		return m.handleError(c, err)
	}
	return c.JSON(ClearCompletedResponse{Removed: removed})
}

// exportTodos handles GET /api/v1/storage/export.
func (m *APIModule) exportTodos(c *fiber.Ctx) error {
	snapshot, err := m.todos.Export(c.UserContext())
	if err != nil {
		return m.handleError(c, err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
	return c.SendString(snapshot)
}

// importTodos handles POST /api/v1/storage/import. The body is an exported snapshot.
func (m *APIModule) importTodos(c *fiber.Ctx) error {
	total, err := m.todos.Import(c.UserContext(), string(c.Body()))
	if errors.Is(err, todostore.ErrInvalidSnapshot) {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_snapshot",
			Message: "Snapshot must be an object with a todos array of records with id and text",
		})
	}
	if err != nil {
		return m.handleError(c, err)
	}
	return c.JSON(ReplaceResponse{Total: total})
}

// clearStorage handles DELETE /api/v1/storage.
func (m *APIModule) clearStorage(c *fiber.Ctx) error {
	if err := m.todos.Clear(c.UserContext()); err != nil {
		return m.handleError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// storageStats handles GET /api/v1/storage/stats.
func (m *APIModule) storageStats(c *fiber.Ctx) error {
	stats, err := m.todos.Stats(c.UserContext())
	if err != nil {
		return m.handleError(c, err)
	}
	return c.JSON(stats)
}

// listBackups handles GET /api/v1/storage/backups.
func (m *APIModule) listBackups(c *fiber.Ctx) error {
	keys, err := m.todos.ListBackups(c.UserContext())
	if err != nil {
		return m.handleError(c, err)
	}
	return c.JSON(BackupListResponse{Keys: keys})
}

// createBackup handles POST /api/v1/storage/backups.
func (m *APIModule) createBackup(c *fiber.Ctx) error {
	key, err := m.todos.Backup(c.UserContext())
	if err != nil {
		return m.handleError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(BackupResponse{Key: key})
}

// restoreBackup handles POST /api/v1/storage/backups/:key/restore.
func (m *APIModule) restoreBackup(c *fiber.Ctx) error {
	total, err := m.todos.RestoreBackup(c.UserContext(), c.Params("key"))
	if err != nil {
		return m.handleError(c, err)
	}
	return c.JSON(ReplaceResponse{Total: total})
}

// deleteBackup handles DELETE /api/v1/storage/backups/:key.
func (m *APIModule) deleteBackup(c *fiber.Ctx) error {
	if err := m.todos.DeleteBackup(c.UserContext(), c.Params("key")); err != nil {
		return m.handleError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// recentActivity handles GET /api/v1/activity?limit=n.
func (m *APIModule) recentActivity(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	if limit < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "validation_error",
			Message: "Limit must not be negative",
		})
	}

	entries, err := m.activity.Recent(c.UserContext(), limit)
	if err != nil {
		return m.handleError(c, err)
	}
	return c.JSON(ActivityResponse{Entries: entries})
}

// handleError maps todo and store errors onto HTTP responses.
func (m *APIModule) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrEmptyText):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "validation_error",
			Message: "Text is required",
		})
	case errors.Is(err, domain.ErrInvalidFilter):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "validation_error",
			Message: "Filter must be one of all, active, completed",
		})
	case errors.Is(err, domain.ErrTodoNotFound):
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error:   "not_found",
			Message: "Todo not found",
		})
	case errors.Is(err, todostore.ErrBackupNotFound):
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error:   "not_found",
			Message: "Backup not found",
		})
	case errors.Is(err, todostore.ErrInvalidBackupKey):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "validation_error",
			Message: "Not a backup key",
		})
	case errors.Is(err, todostore.ErrMalformedData):
		m.logger.WithError(err).Error("Stored todos are malformed", "path", c.Path())
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "malformed_data",
			Message: "Stored todos could not be decoded",
		})
	default:
		m.logger.WithError(err).Error("Internal error", "path", c.Path())
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
	}
}
