package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/davicafu/hexaquery/internal/user/application"
	"github.com/davicafu/hexaquery/internal/user/domain"
	"github.com/davicafu/hexaquery/pkg/utils"
)

const birthDateLayout = "2006-01-02"

// UserHandler encapsula los endpoints HTTP relacionados con User
type UserHandler struct {
	service *application.UserService
}

// NewUserHandler crea un nuevo UserHandler
func NewUserHandler(service *application.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// ---------------- Handlers ----------------

// CreateUser endpoint POST /users
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req struct {
		Email     string `json:"email" binding:"required,email"`
		Nombre    string `json:"nombre" binding:"required"`
		BirthDate string `json:"birthDate" binding:"required"` // YYYY-MM-DD
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendBadRequest(c, err.Error())
		return
	}

	birthDate, err := time.Parse(birthDateLayout, req.BirthDate)
	if err != nil {
		utils.SendBadRequest(c, "invalid birthDate format, use YYYY-MM-DD")
		return
	}

	user, err := h.service.CreateUser(c.Request.Context(), req.Email, req.Nombre, birthDate)
	if err != nil {
		sendUserError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

// GetUser endpoint GET /users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}

	user, err := h.service.GetUser(c.Request.Context(), id)
	if err != nil {
		sendUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// UpdateUser endpoint PUT /users/:id
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}

	var req struct {
		Email     *string `json:"email,omitempty"`
		Nombre    *string `json:"nombre,omitempty"`
		BirthDate *string `json:"birthDate,omitempty"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendBadRequest(c, err.Error())
		return
	}

	user, err := h.service.GetUser(c.Request.Context(), id)
	if err != nil {
		sendUserError(c, err)
		return
	}

	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Nombre != nil {
		user.Nombre = *req.Nombre
	}
	if req.BirthDate != nil {
		bd, err := time.Parse(birthDateLayout, *req.BirthDate)
		if err != nil {
			utils.SendBadRequest(c, "invalid birthDate format, use YYYY-MM-DD")
			return
		}
		user.BirthDate = bd
	}

	if err := h.service.UpdateUser(c.Request.Context(), user); err != nil {
		sendUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// DeleteUser endpoint DELETE /users/:id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteUser(c.Request.Context(), id); err != nil {
		sendUserError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListUsers endpoint GET /users. Acepta la sintaxis de listado sobre los campos
// de User y, además, minAge y maxAge.
func (h *UserHandler) ListUsers(c *gin.Context) {
	values := c.Request.URL.Query()
	minAge, ok := ageParam(c, values.Get("minAge"), "minAge")
	if !ok {
		return
	}
	maxAge, ok := ageParam(c, values.Get("maxAge"), "maxAge")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if !values.Has("minAge") && !values.Has("maxAge") {
		page, err := h.service.ListUsers(ctx, c.Request.URL.RawQuery)
		if err != nil {
			utils.SendQueryError(c, err)
			return
		}
		c.JSON(http.StatusOK, page)
		return
	}

	// minAge y maxAge no son campos de User; se quitan aunque lleguen vacíos.
	values.Del("minAge")
	values.Del("maxAge")
	page, err := h.service.FilterUsers(ctx, minAge, maxAge, values.Encode())
	if err != nil {
		utils.SendQueryError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// SearchUsers endpoint GET /users/search?name=
func (h *UserHandler) SearchUsers(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		utils.SendBadRequest(c, "name is required")
		return
	}

	page, err := h.service.SearchUsersByName(c.Request.Context(), name)
	if err != nil {
		utils.SendQueryError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// ---------------- Helpers ----------------

func userID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.SendBadRequest(c, "invalid user id")
		return uuid.Nil, false
	}
	return id, true
}

func ageParam(c *gin.Context, raw, name string) (*int, bool) {
	if raw == "" {
		return nil, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		utils.SendBadRequest(c, "invalid "+name)
		return nil, false
	}
	return &v, true
}

func sendUserError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		utils.SendNotFound(c, err.Error())
	case errors.Is(err, domain.ErrInvalidUser):
		utils.SendBadRequest(c, err.Error())
	case errors.Is(err, domain.ErrUserAlreadyExists):
		utils.SendConflict(c, err.Error())
	default:
		utils.SendInternalServerError(c, err.Error())
	}
}
