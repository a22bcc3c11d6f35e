package http

import "github.com/gin-gonic/gin"

// RegisterTaskRoutes registra las rutas HTTP para el dominio de Tareas.
func RegisterTaskRoutes(r gin.IRouter, handler *TaskHandler) {
	// Agrupamos todas las rutas de tareas bajo el prefijo "/tasks"
	tasks := r.Group("/tasks")
	{
		tasks.POST("", handler.CreateTask)                // Crear una nueva tarea
		tasks.GET("", handler.ListTasks)                  // Listar con filtros, orden y página
		tasks.GET("/history", handler.ListTaskHistory)    // Histórico de eventos
		tasks.GET("/stats", handler.GetStats)             // Agregados del histórico
		tasks.GET("/:id", handler.GetTask)                // Obtener una tarea por su ID
		tasks.PUT("/:id", handler.UpdateTask)             // Actualizar una tarea existente
		tasks.POST("/:id/complete", handler.CompleteTask) // Marcar como completada
		tasks.DELETE("/:id", handler.DeleteTask)          // Eliminar una tarea
	}

	r.GET("/users/:id/tasks", handler.ListUserTasks)
}
