package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/charlesng35/teamhub/internal/auth"
	"github.com/charlesng35/teamhub/internal/middleware"
	"github.com/charlesng35/teamhub/internal/services"
	apperrors "github.com/charlesng35/teamhub/pkg/errors"
	"github.com/charlesng35/teamhub/pkg/logger"
	"github.com/charlesng35/teamhub/pkg/response"
)

// AuthHandler exposes login, signup and session introspection.
type AuthHandler struct {
	accounts *services.AccountService
	codec    *auth.SessionCodec
}

type loginRequest struct {
	Email    string `json:"email" validate:"omitempty,max=320"`
	Password string `json:"password"`
}

type signupRequest struct {
	Email          string `json:"email" validate:"omitempty,max=320"`
	Password       string `json:"password"`
	FirstName      string `json:"f_name" validate:"omitempty,max=128"`
	LastName       string `json:"l_name" validate:"omitempty,max=128"`
	Role           string `json:"role"`
	OrganizationID string `json:"organization_id"`
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(accounts *services.AccountService, codec *auth.SessionCodec) (*AuthHandler, error) {
	if accounts == nil || codec == nil {
		return nil, errors.New("auth handler: account service and session codec are required")
	}
	return &AuthHandler{accounts: accounts, codec: codec}, nil
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var body loginRequest
	if !bindAndValidate(c, &body) {
		return
	}

	desc, err := h.accounts.Login(requestContext(c), body.Email, body.Password, clientInfo(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := writeSession(c, h.codec, desc); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Login successful", newSessionPayload(desc))
}

// POST /api/auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var body signupRequest
	if !bindAndValidate(c, &body) {
		return
	}

	account, err := h.accounts.Register(requestContext(c), services.RegisterInput{
		Email:          body.Email,
		Password:       body.Password,
		FirstName:      body.FirstName,
		LastName:       body.LastName,
		Role:           body.Role,
		OrganizationID: body.OrganizationID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "User created successfully", account)
}

// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if desc, ok := middleware.CurrentSession(c); ok {
		if err := h.accounts.Logout(requestContext(c), desc); err != nil {
			logger.WithModule("auth").Warn("logout could not revoke session",
				zap.String("profile_id", desc.ProfileID),
				zap.Error(err),
			)
		}
	}
	clearSession(c, h.codec)
	response.Success(c, http.StatusOK, "Logged out successfully", nil)
}

// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	desc, ok := middleware.CurrentSession(c)
	if !ok {
		response.Error(c, apperrors.ErrNotAuthenticated)
		return
	}
	response.Success(c, http.StatusOK, "User data retrieved", newSessionPayload(desc))
}

// GET /api/auth/check
func (h *AuthHandler) Check(c *gin.Context) {
	if _, ok := middleware.CurrentSession(c); !ok {
		response.Error(c, apperrors.ErrNotAuthenticated)
		return
	}
	response.Success(c, http.StatusOK, "Authenticated", nil)
}
