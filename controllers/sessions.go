package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"trainerpro-backend/config"
	"trainerpro-backend/models"
	"trainerpro-backend/utils"
)

type CreateSessionInput struct {
	RecipientID uuid.UUID `json:"recipientId" binding:"required"`
	Title       string    `json:"title"`
	Location    string    `json:"location"`
	ScheduledAt time.Time `json:"scheduledAt" binding:"required"`
	Duration    int       `json:"duration" binding:"omitempty,min=1,max=600"`
}

type UpdateSessionInput struct {
	Title       *string    `json:"title"`
	Location    *string    `json:"location"`
	ScheduledAt *time.Time `json:"scheduledAt"`
	Duration    *int       `json:"duration" binding:"omitempty,min=1,max=600"`
	Status      *string    `json:"status" binding:"omitempty,oneof=scheduled completed cancelled"`
}

func CreateSession(c *gin.Context) {
	trainerID, ok := utils.TrainerID(c)
	if !ok {
		return
	}

	var input CreateSessionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	recipient, ok := findRecipient(c, trainerID, input.RecipientID)
	if !ok {
		return
	}

	session := models.Session{
		TrainerID:   trainerID,
		RecipientID: recipient.ID,
		Title:       input.Title,
		Location:    input.Location,
		ScheduledAt: input.ScheduledAt,
		Duration:    input.Duration,
		Status:      models.SessionScheduled,
	}
	if session.Duration == 0 {
		session.Duration = 60
	}

	if err := config.DB.Create(&session).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create session")
		return
	}
	session.Recipient = *recipient

	c.JSON(http.StatusCreated, session)
}

// GetSessions lists sessions, optionally restricted to ?from= and ?to= (RFC 3339).
func GetSessions(c *gin.Context) {
	trainerID, ok := utils.TrainerID(c)
	if !ok {
		return
	}

	q := config.DB.Preload("Recipient").Where("trainer_id = ?", trainerID)
	for param, cond := range map[string]string{"from": "scheduled_at >= ?", "to": "scheduled_at <= ?"} {
		raw := c.Query(param)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid "+param+" date")
			return
		}
		q = q.Where(cond, t)
	}

	var sessions []models.Session
	if err := q.Order("scheduled_at").Find(&sessions).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve sessions")
		return
	}

	c.JSON(http.StatusOK, sessions)
}

func findSession(c *gin.Context, trainerID, id uuid.UUID) (*models.Session, bool) {
	var session models.Session
	if err := config.DB.Preload("Recipient").Where("trainer_id = ? AND id = ?", trainerID, id).
		First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Session not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return nil, false
	}
	return &session, true
}

func GetSession(c *gin.Context) {
	trainerID, ok := utils.TrainerID(c)
	if !ok {
		return
	}
	id, ok := utils.ParamUUID(c, "id", "session")
	if !ok {
		return
	}

	session, ok := findSession(c, trainerID, id)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, session)
}

func UpdateSession(c *gin.Context) {
	trainerID, ok := utils.TrainerID(c)
	if !ok {
		return
	}
	id, ok := utils.ParamUUID(c, "id", "session")
	if !ok {
		return
	}

	var input UpdateSessionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	session, ok := findSession(c, trainerID, id)
	if !ok {
		return
	}

	if input.Title != nil {
		session.Title = *input.Title
	}
	if input.Location != nil {
		session.Location = *input.Location
	}
	if input.ScheduledAt != nil {
		session.ScheduledAt = *input.ScheduledAt
	}
	if input.Duration != nil {
		session.Duration = *input.Duration
	}
	if input.Status != nil {
		session.Status = *input.Status
	}

	if err := config.DB.Omit(clause.Associations).Save(session).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update session")
		return
	}

	c.JSON(http.StatusOK, session)
}

func DeleteSession(c *gin.Context) {
	trainerID, ok := utils.TrainerID(c)
	if !ok {
		return
	}
	id, ok := utils.ParamUUID(c, "id", "session")
	if !ok {
		return
	}

	result := config.DB.Where("trainer_id = ? AND id = ?", trainerID, id).Delete(&models.Session{})
	if result.Error != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete session")
		return
	}
	if result.RowsAffected == 0 {
		utils.RespondWithError(c, http.StatusNotFound, "Session not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Session deleted successfully"})
}
