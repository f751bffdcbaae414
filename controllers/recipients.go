package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"trainerpro-backend/config"
	"trainerpro-backend/messaging"
	"trainerpro-backend/models"
	"trainerpro-backend/utils"
)

type CreateRecipientInput struct {
	Kind      string     `json:"kind" binding:"required,oneof=student lead"`
	Name      string     `json:"name" binding:"required"`
	Phone     string     `json:"phone" binding:"required"`
	Email     string     `json:"email" binding:"omitempty,email"`
	BirthDate *time.Time `json:"birthDate"`
	Notes     string     `json:"notes"`
	OptIn     *bool      `json:"optIn"`
	Status    string     `json:"status" binding:"omitempty,oneof=active inactive trial converted"`
}

type UpdateRecipientInput struct {
	Kind      *string    `json:"kind" binding:"omitempty,oneof=student lead"`
	Name      *string    `json:"name"`
	Phone     *string    `json:"phone"`
	Email     *string    `json:"email" binding:"omitempty,email"`
	BirthDate *time.Time `json:"birthDate"`
	Notes     *string    `json:"notes"`
	OptIn     *bool      `json:"optIn"`
	Status    *string    `json:"status" binding:"omitempty,oneof=active inactive trial converted"`
}

// normalizePhone stores numbers in the same digits-only form the provider
// webhook reports, so inbound messages can be matched back.
func normalizePhone(c *gin.Context, phone string) (string, bool) {
	if !utils.ValidatePhone(utils.DigitsOnly(phone)) {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid phone number format")
		return "", false
	}
	normalized, err := messaging.FormatPhone(phone, config.Conf.GetString("phone_country_code"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid phone number format")
		return "", false
	}
	return normalized, true
}

func phoneTaken(c *gin.Context, trainerID uuid.UUID, phone string) bool {
	var existing models.Recipient
	err := config.DB.Where("trainer_id = ? AND phone = ?", trainerID, phone).First(&existing).Error
	if err == nil {
		utils.RespondWithError(c, http.StatusConflict, "Recipient with this phone number already exists")
		return true
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return true
	}
	return false
}

func CreateRecipient(c *gin.Context) {
	trainerID, ok := utils.TrainerID(c)
	if !ok {
		return
	}

	var input CreateRecipientInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	phone, ok := normalizePhone(c, input.Phone)
	if !ok || phoneTaken(c, trainerID, phone) {
		return
	}

	recipient := models.Recipient{
		TrainerID: trainerID,
		Kind:      input.Kind,
		Name:      input.Name,
		Phone:     phone,
		Email:     input.Email,
		BirthDate: input.BirthDate,
		Notes:     input.Notes,
		OptIn:     true,
		Status:    models.StatusActive,
	}
	if input.OptIn != nil {
		recipient.OptIn = *input.OptIn
	}
	if input.Status != "" {
		recipient.Status = input.Status
	}

	if err := config.DB.Create(&recipient).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create recipient")
		return
	}

	c.JSON(http.StatusCreated, recipient)
}

// GetRecipients lists the trainer's recipients, optionally filtered by ?kind=.
func GetRecipients(c *gin.Context) {
	trainerID, ok := utils.TrainerID(c)
	if !ok {
		return
	}

	q := config.DB.Where("trainer_id = ?", trainerID)
	if kind := c.Query("kind"); kind != "" {
		q = q.Where("kind = ?", kind)
	}
	var recipients []models.Recipient
	if err := q.Order("name").Find(&recipients).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve recipients")
		return
	}

	c.JSON(http.StatusOK, recipients)
}

func findRecipient(c *gin.Context, trainerID, id uuid.UUID) (*models.Recipient, bool) {
	var recipient models.Recipient
	if err := config.DB.Where("trainer_id = ? AND id = ?", trainerID, id).First(&recipient).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Recipient not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return nil, false
	}
	return &recipient, true
}

func GetRecipient(c *gin.Context) {
	trainerID, ok := utils.TrainerID(c)
	if !ok {
		return
	}
	id, ok := utils.ParamUUID(c, "id", "recipient")
	if !ok {
		return
	}

	recipient, ok := findRecipient(c, trainerID, id)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, recipient)
}

func UpdateRecipient(c *gin.Context) {
	trainerID, ok := utils.TrainerID(c)
	if !ok {
		return
	}
	id, ok := utils.ParamUUID(c, "id", "recipient")
	if !ok {
		return
	}

	var input UpdateRecipientInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	recipient, ok := findRecipient(c, trainerID, id)
	if !ok {
		return
	}

	if input.Phone != nil {
		phone, ok := normalizePhone(c, *input.Phone)
		if !ok {
			return
		}
		if phone != recipient.Phone && phoneTaken(c, trainerID, phone) {
			return
		}
		recipient.Phone = phone
	}
	if input.Kind != nil {
		recipient.Kind = *input.Kind
	}
	if input.Name != nil {
		recipient.Name = *input.Name
	}
	if input.Email != nil {
		recipient.Email = *input.Email
	}
	if input.BirthDate != nil {
		recipient.BirthDate = input.BirthDate
	}
	if input.Notes != nil {
		recipient.Notes = *input.Notes
	}
	if input.OptIn != nil {
		recipient.OptIn = *input.OptIn
	}
	if input.Status != nil {
		recipient.Status = *input.Status
	}

	if err := config.DB.Save(recipient).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update recipient")
		return
	}

	c.JSON(http.StatusOK, recipient)
}

// DeleteRecipient soft deletes a recipient. Its message history is kept.
func DeleteRecipient(c *gin.Context) {
	trainerID, ok := utils.TrainerID(c)
	if !ok {
		return
	}
	id, ok := utils.ParamUUID(c, "id", "recipient")
	if !ok {
		return
	}

	result := config.DB.Where("trainer_id = ? AND id = ?", trainerID, id).Delete(&models.Recipient{})
	if result.Error != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete recipient")
		return
	}
	if result.RowsAffected == 0 {
		utils.RespondWithError(c, http.StatusNotFound, "Recipient not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Recipient deleted successfully"})
}
