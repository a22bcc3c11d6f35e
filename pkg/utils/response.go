package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/davicafu/hexaquery/pkg/query"
)

// ErrorResponse define la estructura estándar para las respuestas de error.
// Key y Value indican el parámetro de la query string rechazado.
type ErrorResponse struct {
	Message string `json:"message"`
	Key     string `json:"key,omitempty"`
	Value   string `json:"value,omitempty"`
}

// SendSuccess envía una respuesta exitosa con un payload de datos.
func SendSuccess(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, gin.H{
		"data": data,
	})
}

// SendError envía una respuesta de error con un formato estandarizado.
func SendError(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{
		"error": ErrorResponse{
			Message: message,
		},
	})
}

// SendQueryError responde 400 si err es un rechazo de la query string y 500 en
// otro caso.
func SendQueryError(c *gin.Context, err error) {
	var argErr *query.ArgumentError
	if !errors.As(err, &argErr) {
		SendInternalServerError(c, err.Error())
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{
		"error": ErrorResponse{
			Message: argErr.Err.Error(),
			Key:     argErr.Key,
			Value:   argErr.Value,
		},
	})
}

// --- Helpers específicos para errores comunes ---

func SendBadRequest(c *gin.Context, message string) {
	SendError(c, http.StatusBadRequest, message)
}

func SendNotFound(c *gin.Context, message string) {
	SendError(c, http.StatusNotFound, message)
}

func SendConflict(c *gin.Context, message string) {
	SendError(c, http.StatusConflict, message)
}

func SendInternalServerError(c *gin.Context, message string) {
	SendError(c, http.StatusInternalServerError, message)
}
