package api

import (
	"net/http"
	"time"

	"github.com/Domenick1991/flightreserve/internal/domain"
	"github.com/Domenick1991/flightreserve/internal/service/users"
	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	service users.UserUseCase
}

type credentialsRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type updateUserRequest struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
}

type userResponse struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	CreatedAt string `json:"created_at"`
}

func NewUserHandler(service users.UserUseCase) *UserHandler {
	return &UserHandler{service: service}
}

// Register mounts signup on public and the account routes on authed.
func (h *UserHandler) Register(public, authed *gin.RouterGroup) {
	public.POST("", h.create)
	authed.PUT("/:id", h.update)
	authed.DELETE("/:id", h.delete)
}

func (h *UserHandler) create(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	user, err := h.service.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toUserResponse(user))
}

func (h *UserHandler) update(c *gin.Context) {
	id, ok := h.ownAccount(c)
	if !ok {
		return
	}

	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if req.Username == nil && req.Password == nil {
		badRequest(c, "nothing to update")
		return
	}

	user, err := h.service.Update(c.Request.Context(), users.UpdateInput{
		UserID:   id,
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}

func (h *UserHandler) delete(c *gin.Context) {
	id, ok := h.ownAccount(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// ownAccount resolves :id and checks it belongs to the caller.
func (h *UserHandler) ownAccount(c *gin.Context) (int64, bool) {
	id, ok := parseID(c)
	if !ok {
		return 0, false
	}
	userID, ok := currentUserID(c)
	if !ok {
		writeError(c, domain.ErrUnauthorized)
		return 0, false
	}
	if userID != id {
		writeError(c, domain.ErrForbidden)
		return 0, false
	}
	return id, true
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Username:  u.Username,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
	}
}
