package handler

import (
	"crypto/subtle"
	"log"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/gin-gonic/gin"
)

const telegramSecretHeader = "X-Telegram-Bot-Api-Secret-Token"

// TelegramWebhook accepts updates pushed by Telegram. The update is only queued
// here, so the reply is fast; a queueing failure is logged and still answered
// with 200 because Telegram would otherwise redeliver it.
func (h *Handler) TelegramWebhook(c *gin.Context) {
	if h.webhookSecret != "" {
		got := c.GetHeader(telegramSecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.webhookSecret)) != 1 {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
	}

	var update tgbotapi.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "bad update"})
		return
	}
	if err := h.Telegram.HandleUpdate(c.Request.Context(), update); err != nil {
		log.Printf("ERROR: queue telegram update %d: %v", update.UpdateID, err)
	}
	c.Status(http.StatusOK)
}
