package admin

import (
	"errors"
	"time"

	"github.com/studiocard/internal/http/response"
	"github.com/studiocard/internal/service"

	"github.com/gin-gonic/gin"
)

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	Token     string                 `json:"token"`
	User      map[string]interface{} `json:"user"`
	ExpiresAt string                 `json:"expires_at"`
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// Login 管理端登录，返回 JWT
func (h *Handler) Login(c *gin.Context) {
	log := requestLog(c)
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	user, token, expiresAt, err := h.AuthService.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrLoginFailed) {
			log.Warnw("admin_login_rejected", "email", req.Email, "client_ip", c.ClientIP())
			respondError(c, response.CodeUnauthorized, "invalid email or password", nil)
			return
		}
		respondError(c, response.CodeInternal, "login failed", err)
		return
	}

	log.Infow("admin_login_succeeded", "user_id", user.ID, "role", user.Role)
	response.Success(c, LoginResponse{
		Token: token,
		User: map[string]interface{}{
			"id":           user.ID,
			"email":        user.Email,
			"display_name": user.DisplayName,
			"role":         user.Role,
		},
		ExpiresAt: expiresAt.Format(time.RFC3339),
	})
}

// ChangePassword 修改当前登录用户密码
func (h *Handler) ChangePassword(c *gin.Context) {
	userID, ok := getAdminUserID(c)
	if !ok {
		return
	}
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	if err := h.AuthService.ChangePassword(userID, req.OldPassword, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, service.ErrLoginFailed):
			respondError(c, response.CodeBadRequest, "password change rejected", nil)
		case errors.Is(err, service.ErrUserNotFound):
			respondError(c, response.CodeNotFound, "user not found", nil)
		default:
			respondError(c, response.CodeInternal, "failed to change password", err)
		}
		return
	}
	response.Success(c, gin.H{"changed": true})
}
