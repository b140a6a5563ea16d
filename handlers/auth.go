package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"rodroyale/auth"
	"rodroyale/middleware"
	"rodroyale/models"
	"rodroyale/store"
)

type authResponse struct {
	User  *models.User `json:"user"`
	Token auth.Pair    `json:"token"`
}

func (h *Handler) Register(c *gin.Context) {
	var input struct {
		Username string `json:"username" binding:"required,min=3,max=50"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=8,max=72"`
		Bio      string `json:"bio" binding:"max=500"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		bindErr(c, err)
		return
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		fail(c, err, "register user")
		return
	}
	u := &models.User{
		Username:     strings.TrimSpace(input.Username),
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		Bio:          input.Bio,
		PasswordHash: hash,
	}
	if err := h.store.CreateUser(c.Request.Context(), u); err != nil {
		fail(c, err, "register user")
		return
	}

	pair, err := h.tokens.IssuePair(u.ID)
	if err != nil {
		fail(c, err, "register user")
		return
	}
	slog.Info("user registered", "user_id", u.ID, "username", u.Username)
	c.JSON(http.StatusCreated, authResponse{User: u, Token: pair})
}

func (h *Handler) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		bindErr(c, err)
		return
	}

	u, err := h.store.GetUserByEmail(c.Request.Context(), strings.ToLower(strings.TrimSpace(input.Email)))
	if errors.Is(err, store.ErrNotFound) || (err == nil && !auth.CheckPassword(u.PasswordHash, input.Password)) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}
	if err != nil {
		fail(c, err, "log in")
		return
	}

	pair, err := h.tokens.IssuePair(u.ID)
	if err != nil {
		fail(c, err, "log in")
		return
	}
	c.JSON(http.StatusOK, authResponse{User: u, Token: pair})
}

// Refresh rotates a refresh token: the presented one is revoked and a
// new pair is issued.
func (h *Handler) Refresh(c *gin.Context) {
	var input struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		bindErr(c, err)
		return
	}
	ctx := c.Request.Context()

	claims, err := h.tokens.Parse(input.RefreshToken, auth.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token"})
		return
	}
	userID, err := claims.UserID()
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token"})
		return
	}

	exists, err := h.store.UserExists(ctx, userID)
	if err != nil {
		fail(c, err, "refresh token")
		return
	}
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
		return
	}

	consumed, err := h.cache.Consume(ctx, claims.ID, claims.ExpiresAt.Time)
	if err != nil {
		slog.Error("failed to consume refresh token", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "session store unavailable"})
		return
	}
	if !consumed {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token"})
		return
	}
	pair, err := h.tokens.IssuePair(userID)
	if err != nil {
		fail(c, err, "refresh token")
		return
	}
	c.JSON(http.StatusOK, pair)
}

func (h *Handler) Me(c *gin.Context) {
	u, err := h.store.GetUser(c.Request.Context(), viewer(c))
	if err != nil {
		fail(c, err, "load profile")
		return
	}
	c.JSON(http.StatusOK, u)
}

// Logout revokes the access token in use and, when sent, the refresh
// token that goes with it.
func (h *Handler) Logout(c *gin.Context) {
	var input struct {
		RefreshToken string `json:"refresh_token"`
	}
	// the body is optional
	_ = c.ShouldBindJSON(&input)
	ctx := c.Request.Context()

	claims := middleware.Claims(c)
	if err := h.cache.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		slog.Error("failed to revoke access token", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "session store unavailable"})
		return
	}

	if input.RefreshToken != "" {
		refresh, err := h.tokens.Parse(input.RefreshToken, auth.RefreshToken)
		if err == nil && refresh.Subject == claims.Subject {
			if err := h.cache.Revoke(ctx, refresh.ID, refresh.ExpiresAt.Time); err != nil {
				slog.Warn("failed to revoke refresh token", "error", err)
			}
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "Successfully logged out"})
}

func (h *Handler) ChangePassword(c *gin.Context) {
	var input struct {
		CurrentPassword string `json:"current_password" binding:"required"`
		NewPassword     string `json:"new_password" binding:"required,min=8,max=72"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		bindErr(c, err)
		return
	}
	ctx := c.Request.Context()

	u, err := h.store.GetUser(ctx, viewer(c))
	if err != nil {
		fail(c, err, "change password")
		return
	}
	if !auth.CheckPassword(u.PasswordHash, input.CurrentPassword) {
		badRequest(c, "Current password is incorrect")
		return
	}
	if auth.CheckPassword(u.PasswordHash, input.NewPassword) {
		badRequest(c, "New password must be different from current password")
		return
	}

	hash, err := auth.HashPassword(input.NewPassword)
	if err != nil {
		fail(c, err, "change password")
		return
	}
	if err := h.store.UpdatePassword(ctx, u.ID, hash); err != nil {
		fail(c, err, "change password")
		return
	}
	slog.Info("password changed", "user_id", u.ID)
	c.JSON(http.StatusOK, gin.H{
		"message": "Password changed successfully",
		"detail":  "Please log in again with your new password",
	})
}

const resetSentMessage = "If an account with this email exists, a password reset link has been sent"

// ForgotPassword answers the same way whether or not the email is
// known. The token is only echoed back outside production.
func (h *Handler) ForgotPassword(c *gin.Context) {
	var input struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		bindErr(c, err)
		return
	}

	u, err := h.store.GetUserByEmail(c.Request.Context(), strings.ToLower(strings.TrimSpace(input.Email)))
	if errors.Is(err, store.ErrNotFound) {
		slog.Warn("password reset requested for unknown email")
		c.JSON(http.StatusOK, gin.H{"message": resetSentMessage})
		return
	}
	if err != nil {
		fail(c, err, "process password reset request")
		return
	}

	token, err := h.tokens.IssueReset(u.Email)
	if err != nil {
		fail(c, err, "process password reset request")
		return
	}
	slog.Info("password reset token issued", "user_id", u.ID)

	resp := gin.H{"message": resetSentMessage}
	if !h.cfg.IsProduction() {
		resp["reset_token"] = token
	}
	c.JSON(http.StatusOK, resp)
}

// ResetPassword consumes a reset token. Each token works once.
func (h *Handler) ResetPassword(c *gin.Context) {
	var input struct {
		Token       string `json:"token" binding:"required"`
		NewPassword string `json:"new_password" binding:"required,min=8,max=72"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		bindErr(c, err)
		return
	}
	ctx := c.Request.Context()

	claims, err := h.tokens.Parse(input.Token, auth.ResetToken)
	if err != nil || claims.Email == "" {
		badRequest(c, "Invalid or expired reset token")
		return
	}
	u, err := h.store.GetUserByEmail(ctx, claims.Email)
	if errors.Is(err, store.ErrNotFound) {
		badRequest(c, "Invalid reset token")
		return
	}
	if err != nil {
		fail(c, err, "reset password")
		return
	}

	// spend the token before touching the password
	consumed, err := h.cache.Consume(ctx, claims.ID, claims.ExpiresAt.Time)
	if err != nil {
		slog.Error("failed to consume reset token", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "session store unavailable"})
		return
	}
	if !consumed {
		badRequest(c, "Invalid or expired reset token")
		return
	}

	hash, err := auth.HashPassword(input.NewPassword)
	if err != nil {
		fail(c, err, "reset password")
		return
	}
	if err := h.store.UpdatePassword(ctx, u.ID, hash); err != nil {
		fail(c, err, "reset password")
		return
	}
	slog.Info("password reset", "user_id", u.ID)
	c.JSON(http.StatusOK, gin.H{
		"message": "Password reset successfully",
		"detail":  "You can now log in with your new password",
	})
}
