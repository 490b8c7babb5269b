package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"task-manager/internal/models"
	"task-manager/internal/service"
	"task-manager/pkg/logger"
)

// Accounts is the account service used by the auth handlers.
type Accounts interface {
	Register(ctx context.Context, in service.RegisterInput) (*models.Account, error)
	Login(ctx context.Context, email, password string) (string, *models.Account, error)
	Profile(ctx context.Context, id uuid.UUID) (*models.Account, error)
}

// AuthHandler serves signup, login and profile.
type AuthHandler struct {
	accounts Accounts
}

func NewAuthHandler(accounts Accounts) *AuthHandler {
	return &AuthHandler{accounts: accounts}
}

// Signup creates an account. 201 on success.
func (h *AuthHandler) Signup(c *gin.Context) {
	ctx := c.Request.Context()
	var body struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, "Please send string values for name, email and password")
		return
	}
	a, err := h.accounts.Register(ctx, service.RegisterInput{Name: body.Name, Email: body.Email, Password: body.Password})
	if err != nil {
		respondError(c, "Signup", err)
		return
	}
	logger.Info(ctx, "User created", "account_id", a.ID)
	ok(c, http.StatusCreated, "Congratulations!! Account has been created for you.", gin.H{"user": a})
}

// Login returns an access token and the account.
func (h *AuthHandler) Login(c *gin.Context) {
	ctx := c.Request.Context()
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, "Please enter all details!!")
		return
	}
	token, a, err := h.accounts.Login(ctx, body.Email, body.Password)
	if err != nil {
		respondError(c, "Login", err)
		return
	}
	logger.Info(ctx, "User logged in", "account_id", a.ID)
	ok(c, http.StatusOK, "Login successful.", gin.H{"token": token, "user": a})
}

// Profile returns the authenticated account.
func (h *AuthHandler) Profile(c *gin.Context) {
	id, authed := actor(c)
	if !authed {
		return
	}
	a, err := h.accounts.Profile(c.Request.Context(), id)
	if err != nil {
		respondError(c, "Profile", err)
		return
	}
	ok(c, http.StatusOK, "Profile found successfully.", gin.H{"user": a})
}
