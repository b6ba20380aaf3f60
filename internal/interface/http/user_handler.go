package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Barklim/bio/internal/apperr"
	"github.com/Barklim/bio/internal/application"
	"github.com/Barklim/bio/pkg/response"
	"github.com/Barklim/bio/pkg/validation"
)

type UserHandler struct {
	Users  *application.UserService
	Logger *logrus.Logger
}

func NewUserHandler(users *application.UserService, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Users: users, Logger: logger}
}

type createUserRequest struct {
	Email     string `json:"email" binding:"required,email"`
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
	Password  string `json:"password" binding:"omitempty,pwd"`
	Role      string `json:"role" binding:"omitempty,oneof=admin user moderator"`
}

type updateUserRequest struct {
	Email     *string `json:"email" binding:"omitempty,email"`
	FirstName *string `json:"firstName" binding:"omitempty,min=1"`
	LastName  *string `json:"lastName" binding:"omitempty,min=1"`
	Password  *string `json:"password" binding:"omitempty,pwd"`
	Role      *string `json:"role" binding:"omitempty,oneof=admin user moderator"`
	IsActive  *bool   `json:"isActive"`
}

func userID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Err(c, http.StatusNotFound, apperr.ErrUserNotFound.Message)
		return 0, false
	}
	return id, true
}

// List GET /api/users
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.Users.List(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// Get GET /api/users/:id
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	u, err := h.Users.Get(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// Create POST /api/users. Administrative create; password is optional and
// accounts created without one cannot log in.
func (h *UserHandler) Create(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Err(c, http.StatusBadRequest, validation.ToDetails(err))
		return
	}
	u, err := h.Users.Create(c.Request.Context(), application.CreateInput{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
		Role:      req.Role,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

// Update PATCH /api/users/:id. Partial update; omitted fields are kept.
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Err(c, http.StatusBadRequest, validation.ToDetails(err))
		return
	}
	u, err := h.Users.Update(c.Request.Context(), id, application.UpdateInput{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
		Role:      req.Role,
		IsActive:  req.IsActive,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// Delete DELETE /api/users/:id. Hard delete, no tombstone.
func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	if err := h.Users.Delete(c.Request.Context(), id); err != nil {
		response.FromError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Search GET /api/users/search?q=&size=
func (h *UserHandler) Search(c *gin.Context) {
	q := c.Query("q")
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
	hits, err := h.Users.Search(c.Request.Context(), q, size)
	if err != nil {
		h.Logger.WithError(err).Warn("user search failed")
		response.FromError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": hits})
}
