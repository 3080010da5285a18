package user

import (
	"brand-builder/auth"
	"brand-builder/internal/domain"
	"brand-builder/internal/errors"
	"brand-builder/internal/middleware"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	service      Service
	secureCookie bool
	logger       *zap.Logger
}

func NewHandler(service Service, secureCookie bool, logger *zap.Logger) *Handler {
	return &Handler{service: service, secureCookie: secureCookie, logger: logger}
}

type FormLogin struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type FormRegister struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// Register creates an active account; the password is hashed by the service.
func (h *Handler) Register(c *gin.Context) {
	var form FormRegister
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	user := &domain.User{
		Name:     form.Name,
		Email:    form.Email,
		Password: form.Password,
		IsActive: true,
	}

	if err := h.service.Register(c.Request.Context(), user); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": user.ToSafeUser()})
}

const (
	refreshCookie    = "refresh_token"
	refreshCookieAge = 7 * 24 * 3600
)

// issueTokens answers with a fresh access token and sets the refresh token
// as an HttpOnly cookie.
func (h *Handler) issueTokens(c *gin.Context, status int, user *domain.User) {
	accessToken, err := auth.GenerateAccessToken(user.ID, user.TokenVersion)
	if err != nil {
		c.Error(errors.Internal(err))
		return
	}
	refreshToken, err := auth.GenerateRefreshToken(user.ID, user.TokenVersion)
	if err != nil {
		c.Error(errors.Internal(err))
		return
	}

	c.SetCookie(refreshCookie, refreshToken, refreshCookieAge, "/", "", h.secureCookie, true)
	c.JSON(status, gin.H{
		"access_token": accessToken,
		"user":         user.ToSafeUser(),
	})
}

func (h *Handler) Login(c *gin.Context) {
	var form FormLogin
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	user, err := h.service.Login(c.Request.Context(), form.Email, form.Password)
	if err != nil {
		c.Error(err)
		return
	}
	h.issueTokens(c, http.StatusOK, user)
}

// RefreshToken trades the refresh cookie for a new token pair.
func (h *Handler) RefreshToken(c *gin.Context) {
	token, err := c.Cookie(refreshCookie)
	if err != nil {
		c.Error(errors.Unauthorized("Refresh token not found", err))
		return
	}

	user, apiErr := middleware.Authenticate(c.Request.Context(), h.service, token, auth.KindRefresh)
	if apiErr != nil {
		c.Error(apiErr)
		return
	}
	h.issueTokens(c, http.StatusOK, user)
}

// Logout bumps the token version so outstanding tokens stop working.
func (h *Handler) Logout(c *gin.Context) {
	userID := c.GetUint64("user_id")

	if err := h.service.IncreaseTokenVersion(c.Request.Context(), userID); err != nil {
		h.logger.Warn("increase token version", zap.Uint64("user_id", userID), zap.Error(err))
	}
	c.SetCookie(refreshCookie, "", -1, "/", "", h.secureCookie, true)
	c.Status(http.StatusNoContent)
}

func (h *Handler) GetProfile(c *gin.Context) {
	userID := c.GetUint64("user_id")

	user, err := h.service.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, user.ToSafeUser())
}
