package controllers

import (
	"crypto/subtle"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"trainerpro-backend/services"
	"trainerpro-backend/utils"
)

const maxWebhookBody = 1 << 20

// WebhookController receives provider callbacks. It is mounted without JWT auth.
type WebhookController struct {
	Inbound *services.InboundService
	// APIKey, when set, must match the "apikey" header of every call.
	APIKey string
	Log    *slog.Logger
}

func (wc *WebhookController) Stevo(c *gin.Context) {
	if wc.APIKey != "" && subtle.ConstantTimeCompare([]byte(c.GetHeader("apikey")), []byte(wc.APIKey)) != 1 {
		utils.RespondWithError(c, http.StatusUnauthorized, "Invalid webhook key")
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Could not read body")
		return
	}

	msg, err := services.ParseStevoWebhook(body)
	if errors.Is(err, services.ErrNotAMessage) {
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid webhook payload")
		return
	}

	result, err := wc.Inbound.Handle(c.Request.Context(), *msg)
	if err != nil {
		wc.Log.Error("inbound webhook failed", "error", err)
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to process message")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "received",
		"matched":    len(result.Recipients),
		"confidence": result.Intent.Confidence,
		"action":     result.Intent.Action,
	})
}
