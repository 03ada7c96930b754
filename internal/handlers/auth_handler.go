package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"schoolhub/internal/models"
	"schoolhub/internal/services"
)

type AuthHandler struct {
	authService  services.AuthService
	resetService services.PasswordResetService
}

func NewAuthHandler(authService services.AuthService, resetService services.PasswordResetService) *AuthHandler {
	return &AuthHandler{authService: authService, resetService: resetService}
}

// @Summary      Log in
// @Description  Authenticates a user and returns an access and a refresh token
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        login  body      models.LoginRequest  true  "Credentials"
// @Success      200    {object}  map[string]interface{}
// @Failure      400    {object}  map[string]string
// @Failure      401    {object}  map[string]string
// @Router       /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[auth][login] bad request: bind json failed: err=%v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, tokens, err := h.authService.Login(c.Request.Context(), req.Username, req.Password)
	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
		return
	case errors.Is(err, services.ErrInactiveUser):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "This account is inactive"})
		return
	case err != nil:
		log.Printf("[auth][login] username=%q: %v", req.Username, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to log in"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user":    newUserResponse(user),
		"tokens":  tokens,
	})
}

// @Summary  Rotate the refresh token
// @Tags     Auth
// @Accept   json
// @Produce  json
// @Router   /refresh [post]
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tokens, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		if !errors.Is(err, services.ErrInvalidRefresh) {
			log.Printf("[auth][refresh] %v", err)
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token"})
		return
	}
	c.JSON(http.StatusOK, tokens)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	if err := h.authService.Logout(c.Request.Context(), userID); err != nil {
		log.Printf("[auth][logout] userID=%d: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to log out"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// @Summary      Request a password reset
// @Description  Always answers 200 so that account existence is not revealed
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Router       /password-reset [post]
func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.resetService.RequestReset(c.Request.Context(), req.Email); err != nil {
		log.Printf("[auth][password-reset] %v", err)
	}
	c.JSON(http.StatusOK, gin.H{"message": "If the address is registered, a reset link has been sent."})
}

func (h *AuthHandler) ConfirmPasswordReset(c *gin.Context) {
	var req struct {
		Token       string `json:"token" binding:"required"`
		NewPassword string `json:"new_password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	err := h.resetService.ResetPassword(c.Request.Context(), strings.TrimSpace(req.Token), req.NewPassword)
	switch {
	case errors.Is(err, services.ErrInvalidResetToken):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, services.ErrWeakPassword):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		respondError(c, "[auth][password-reset-confirm]", err, "Failed to reset password")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password has been reset"})
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	var req models.PasswordChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	err := h.authService.ChangePassword(c.Request.Context(), userID, req.OldPassword, req.NewPassword)
	switch {
	case errors.Is(err, services.ErrWrongPassword), errors.Is(err, services.ErrWeakPassword):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		respondError(c, "[auth][password-change]", err, "Failed to change password")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Your password was successfully updated!"})
}

func (h *AuthHandler) SetPassword(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	var req models.PasswordSetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	err := h.authService.SetPassword(c.Request.Context(), userID, req.NewPassword)
	switch {
	case errors.Is(err, services.ErrWeakPassword):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		respondError(c, "[auth][password-set]", err, "Failed to set password")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Your password was successfully set!"})
}
