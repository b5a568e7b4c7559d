// Package handler exposes the HTTP surface: health, the Telegram webhook and the
// anonymous web reporter channel.
package handler

import (
	"context"
	"net/http"
	"time"

	"trustline/backend/internal/chathub"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/gin-gonic/gin"
)

// HealthChecker reports whether the backing stores answer.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// UpdateHandler takes one Telegram update from the webhook.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, update tgbotapi.Update) error
}

// Handler містить залежності HTTP-обробників
type Handler struct {
	Hub      *chathub.ManagerService
	Health   HealthChecker
	Telegram UpdateHandler

	jwtSecret     []byte
	jwtTTL        time.Duration
	webhookSecret string
}

// Options configure NewHandler. A nil Hub disables the web channel routes and a
// nil Telegram disables the webhook route.
type Options struct {
	Hub           *chathub.ManagerService
	Health        HealthChecker
	Telegram      UpdateHandler
	JWTSecret     string
	JWTTTL        time.Duration
	WebhookSecret string
}

func NewHandler(o Options) *Handler {
	ttl := o.JWTTTL
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &Handler{
		Hub:           o.Hub,
		Health:        o.Health,
		Telegram:      o.Telegram,
		jwtSecret:     []byte(o.JWTSecret),
		jwtTTL:        ttl,
		webhookSecret: o.WebhookSecret,
	}
}

// Register mounts the routes on r.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/healthz", h.Healthz)
	if h.Telegram != nil {
		r.POST("/webhook/telegram", h.TelegramWebhook)
	}
	if h.Hub != nil {
		r.GET("/anonid", h.GetAnonID)  // Отримання JWT для AnonID
		r.GET("/ws", h.ServeWebSocket) // WebSocket Upgrade
	}
}

// Healthz pings the database and redis.
func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.Health.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
