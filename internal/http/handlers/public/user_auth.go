package public

import (
	"errors"
	"time"

	"github.com/shopfront/internal/http/response"
	"github.com/shopfront/internal/models"
	"github.com/shopfront/internal/service"

	"github.com/gin-gonic/gin"
)

// UserRegisterRequest 注册请求
type UserRegisterRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	FullName string `json:"full_name"`
}

// UserLoginRequest 登录请求
type UserLoginRequest struct {
	Email          string                `json:"email" binding:"required"`
	Password       string                `json:"password" binding:"required"`
	CaptchaPayload CaptchaPayloadRequest `json:"captcha_payload"`
}

// UserProfileUpdateRequest 资料更新请求，nil 字段保持原值
type UserProfileUpdateRequest struct {
	Email    *string `json:"email"`
	FullName *string `json:"full_name"`
	Password *string `json:"password"`
}

// UserProfileResponse 用户信息响应
type UserProfileResponse struct {
	ID          uint       `json:"id"`
	Email       string     `json:"email"`
	FullName    string     `json:"full_name"`
	IsAdmin     bool       `json:"is_admin"`
	LastLoginAt *time.Time `json:"last_login_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

func buildUserProfile(user *models.User) UserProfileResponse {
	return UserProfileResponse{
		ID:          user.ID,
		Email:       user.Email,
		FullName:    user.FullName,
		IsAdmin:     user.IsAdmin,
		LastLoginAt: user.LastLoginAt,
		CreatedAt:   user.CreatedAt,
	}
}

// UserRegister 用户注册
func (h *Handler) UserRegister(c *gin.Context) {
	var req UserRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	user, err := h.AuthService.Register(service.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		respondWithMappedError(c, err, registerErrorRules, response.CodeInternal, "register failed")
		return
	}

	requestLog(c).Infow("user_registered", "user_id", user.ID)
	response.Success(c, gin.H{"user": buildUserProfile(user)})
}

// UserLogin 用户登录
func (h *Handler) UserLogin(c *gin.Context) {
	var req UserLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	if h.CaptchaService != nil {
		if captchaErr := h.CaptchaService.Verify(service.CaptchaSceneLogin, req.CaptchaPayload.ToServicePayload()); captchaErr != nil {
			respondWithMappedError(c, captchaErr, captchaErrorRules, response.CodeInternal, "captcha verify failed")
			return
		}
	}

	user, token, expiresAt, err := h.AuthService.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			requestLog(c).Warnw("user_login_failed", "client_ip", c.ClientIP())
		}
		respondWithMappedError(c, err, loginErrorRules, response.CodeInternal, "login failed")
		return
	}

	requestLog(c).Infow("user_logged_in", "user_id", user.ID)
	response.Success(c, gin.H{
		"token":      token,
		"expires_at": expiresAt,
		"user":       buildUserProfile(user),
	})
}

// GetCurrentUser 获取当前登录用户
func (h *Handler) GetCurrentUser(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	user, err := h.AuthService.GetUserByID(uid)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "user not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "user fetch failed", err)
		return
	}
	response.Success(c, gin.H{"user": buildUserProfile(user)})
}

// UpdateCurrentUser 更新当前登录用户资料
func (h *Handler) UpdateCurrentUser(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req UserProfileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	user, err := h.AuthService.UpdateProfile(uid, service.UpdateProfileInput{
		Email:    req.Email,
		FullName: req.FullName,
		Password: req.Password,
	})
	if err != nil {
		respondWithMappedError(c, err, profileUpdateErrorRules, response.CodeInternal, "profile update failed")
		return
	}

	requestLog(c).Infow("user_profile_updated", "user_id", user.ID)
	response.Success(c, gin.H{"user": buildUserProfile(user)})
}
