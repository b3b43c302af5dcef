package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/labflow-backend/internal/http/response"
	"github.com/yungbote/labflow-backend/internal/platform/apierr"
	"github.com/yungbote/labflow-backend/internal/services"
)

type AuthHandler struct {
	authService services.AuthService
	resets      services.PasswordResetService
}

func NewAuthHandler(authService services.AuthService, resets services.PasswordResetService) *AuthHandler {
	return &AuthHandler{authService: authService, resets: resets}
}

// POST /api/auth/login
func (ah *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := bind(c, &req); err != nil {
		response.Fail(c, err)
		return
	}
	token, u, err := ah.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"access_token": token,
		"expires_in":   int(ah.authService.GetAccessTTL().Seconds()),
		"user":         u,
	})
}

type otpRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

var errResetDisabled = errors.New("password reset is not available")

// POST /api/auth/send-otp
func (ah *AuthHandler) SendOTP(c *gin.Context) {
	var req otpRequest
	if err := bind(c, &req); err != nil {
		response.Fail(c, err)
		return
	}
	if ah.resets == nil {
		response.Fail(c, apierr.New(http.StatusServiceUnavailable, "unavailable", errResetDisabled))
		return
	}
	if err := ah.resets.SendOTP(c.Request.Context(), req.Email); err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"message": "OTP sent to email"})
}

// POST /api/auth/verify-otp
func (ah *AuthHandler) VerifyOTP(c *gin.Context) {
	var req otpRequest
	if err := bind(c, &req); err != nil {
		response.Fail(c, err)
		return
	}
	if ah.resets == nil {
		response.Fail(c, apierr.New(http.StatusServiceUnavailable, "unavailable", errResetDisabled))
		return
	}
	if err := ah.resets.VerifyOTP(c.Request.Context(), req.Email, req.OTP); err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"message": "OTP verified"})
}

// POST /api/auth/update-password
func (ah *AuthHandler) UpdatePassword(c *gin.Context) {
	var req otpRequest
	if err := bind(c, &req); err != nil {
		response.Fail(c, err)
		return
	}
	if ah.resets == nil {
		response.Fail(c, apierr.New(http.StatusServiceUnavailable, "unavailable", errResetDisabled))
		return
	}
	if err := ah.resets.ResetPassword(c.Request.Context(), req.Email, req.OTP, req.NewPassword); err != nil {
		response.Fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"message": "Password updated"})
}
