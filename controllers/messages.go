package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"trainerpro-backend/messaging"
	"trainerpro-backend/models"
	"trainerpro-backend/repository"
	"trainerpro-backend/services"
	"trainerpro-backend/utils"
)

// MessageController serves the endpoints backed by the automation worker.
type MessageController struct {
	Store      *repository.Store
	Automation *services.AutomationService
	Location   *time.Location
	Log        *slog.Logger
}

func (mc *MessageController) location() *time.Location {
	if mc.Location == nil {
		return time.Local
	}
	return mc.Location
}

type SendMessageInput struct {
	RecipientID uuid.UUID `json:"recipientId" binding:"required"`
	Message     string    `json:"message" binding:"required,max=4096"`
}

func (mc *MessageController) trainer(c *gin.Context) (*models.Trainer, bool) {
	trainerID, ok := utils.TrainerID(c)
	if !ok {
		return nil, false
	}
	trainer, err := mc.Store.Trainer(c.Request.Context(), trainerID)
	if err != nil {
		utils.RespondWithError(c, http.StatusUnauthorized, "Trainer not found")
		return nil, false
	}
	return trainer, true
}

// SendMessage sends a hand-written message to one recipient right away.
func (mc *MessageController) SendMessage(c *gin.Context) {
	trainer, ok := mc.trainer(c)
	if !ok {
		return
	}

	var input SendMessageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	recipient, ok := findRecipient(c, trainer.ID, input.RecipientID)
	if !ok {
		return
	}

	entry, err := mc.Automation.SendManual(c.Request.Context(), *trainer, *recipient, input.Message)
	switch {
	case errors.Is(err, services.ErrOptedOut):
		utils.RespondWithError(c, http.StatusUnprocessableEntity, "Recipient has not opted in to messages")
	case errors.Is(err, messaging.ErrNotConfigured):
		utils.RespondWithError(c, http.StatusServiceUnavailable, "Messaging provider not configured")
	case err != nil:
		mc.Log.Warn("manual send failed", "trainer_id", trainer.ID, "recipient_id", recipient.ID, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to send message", "message": entry})
	default:
		c.JSON(http.StatusCreated, entry)
	}
}

// ListMessages returns the message log, newest first.
func (mc *MessageController) ListMessages(c *gin.Context) {
	trainerID, ok := utils.TrainerID(c)
	if !ok {
		return
	}

	filter := repository.LogFilter{
		Status:      c.Query("status"),
		TriggerType: c.Query("triggerType"),
	}
	if raw := c.Query("recipientId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid recipient ID format")
			return
		}
		filter.RecipientID = &id
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid limit")
			return
		}
		filter.Limit = limit
	}

	logs, err := mc.Store.ListMessageLogs(c.Request.Context(), trainerID, filter)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve messages")
		return
	}

	c.JSON(http.StatusOK, logs)
}

// RunAutomations runs every rule category for the caller right now. Dedup
// still applies, so repeating the call does not resend.
func (mc *MessageController) RunAutomations(c *gin.Context) {
	trainer, ok := mc.trainer(c)
	if !ok {
		return
	}

	report, err := mc.Automation.RunForTrainer(c.Request.Context(), *trainer)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Automation run interrupted")
		return
	}

	sent, failed := report.Totals()
	c.JSON(http.StatusOK, gin.H{
		"sent":    sent,
		"failed":  failed,
		"results": report.Results,
	})
}
