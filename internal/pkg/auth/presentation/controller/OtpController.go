package controller

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"projectsync/internal/pkg/auth/application/usecase"
)

// OtpController serves the request-code and verify-code endpoints.
// A successful verify sets the session cookie named CookieName.
type OtpController struct {
	RequestUC  *usecase.RequestOtpUseCase
	VerifyUC   *usecase.VerifyOtpUseCase
	CookieName string
	Logger     *slog.Logger
}

func NewOtpController(req *usecase.RequestOtpUseCase, verify *usecase.VerifyOtpUseCase, cookieName string, logger *slog.Logger) *OtpController {
	return &OtpController{RequestUC: req, VerifyUC: verify, CookieName: cookieName, Logger: logger}
}

type requestOtpRequest struct {
	Email string `json:"email" binding:"required"`
}

type verifyOtpRequest struct {
	Email string `json:"email" binding:"required"`
	Code  string `json:"code" binding:"required"`
}

func (h *OtpController) HandleRequest() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req requestOtpRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
		defer cancel()
		err := h.RequestUC.Execute(ctx, usecase.RequestOtpInput{Email: req.Email})
		switch {
		case err == nil:
			c.JSON(http.StatusAccepted, gin.H{"status": "sent"})
		case errors.Is(err, usecase.ErrInvalidEmail):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, usecase.ErrDelivery):
			h.Logger.Error("otp delivery failed", "err", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "could not send verification email"})
		default:
			h.Logger.Error("otp request failed", "err", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
	}
}

func (h *OtpController) HandleVerify() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req verifyOtpRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()
		out, err := h.VerifyUC.Execute(ctx, usecase.VerifyOtpInput{Email: req.Email, Code: req.Code})
		switch {
		case err == nil:
			if h.CookieName != "" {
				c.SetSameSite(http.SameSiteLaxMode)
				c.SetCookie(h.CookieName, out.Token, int(time.Until(out.ExpiresAt).Seconds()), "/", "", c.Request.TLS != nil, true)
			}
			c.JSON(http.StatusOK, gin.H{
				"verified":  true,
				"token":     out.Token,
				"expiresAt": out.ExpiresAt,
				"user":      out.Identity,
			})
		case errors.Is(err, usecase.ErrInvalidEmail):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, usecase.ErrInvalidCode):
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		default:
			h.Logger.Error("otp verify failed", "err", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
	}
}
