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

type CreateChargeInput struct {
	RecipientID uuid.UUID `json:"recipientId" binding:"required"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount" binding:"required,gt=0"`
	DueDate     time.Time `json:"dueDate" binding:"required"`
	PaymentLink string    `json:"paymentLink" binding:"omitempty,url"`
}

type UpdateChargeInput struct {
	Description *string    `json:"description"`
	Amount      *float64   `json:"amount" binding:"omitempty,gt=0"`
	DueDate     *time.Time `json:"dueDate"`
	PaymentLink *string    `json:"paymentLink" binding:"omitempty,url"`
	Status      *string    `json:"status" binding:"omitempty,oneof=pending paid cancelled"`
}

func CreateCharge(c *gin.Context) {
	trainerID, ok := utils.TrainerID(c)
	if !ok {
		return
	}

	var input CreateChargeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	recipient, ok := findRecipient(c, trainerID, input.RecipientID)
	if !ok {
		return
	}

	charge := models.Charge{
		TrainerID:   trainerID,
		RecipientID: recipient.ID,
		Description: input.Description,
		Amount:      input.Amount,
		DueDate:     input.DueDate,
		PaymentLink: input.PaymentLink,
		Status:      models.ChargePending,
	}
	if err := config.DB.Create(&charge).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create charge")
		return
	}
	charge.Recipient = *recipient

	c.JSON(http.StatusCreated, charge)
}

// GetCharges lists charges, optionally filtered by ?status=.
func GetCharges(c *gin.Context) {
	trainerID, ok := utils.TrainerID(c)
	if !ok {
		return
	}

	q := config.DB.Preload("Recipient").Where("trainer_id = ?", trainerID)
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	var charges []models.Charge
	if err := q.Order("due_date").Find(&charges).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve charges")
		return
	}

	c.JSON(http.StatusOK, charges)
}

func findCharge(c *gin.Context, trainerID, id uuid.UUID) (*models.Charge, bool) {
	var charge models.Charge
	if err := config.DB.Preload("Recipient").Where("trainer_id = ? AND id = ?", trainerID, id).
		First(&charge).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Charge not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return nil, false
	}
	return &charge, true
}

func GetCharge(c *gin.Context) {
	trainerID, ok := utils.TrainerID(c)
	if !ok {
		return
	}
	id, ok := utils.ParamUUID(c, "id", "charge")
	if !ok {
		return
	}

	charge, ok := findCharge(c, trainerID, id)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, charge)
}

func UpdateCharge(c *gin.Context) {
	trainerID, ok := utils.TrainerID(c)
	if !ok {
		return
	}
	id, ok := utils.ParamUUID(c, "id", "charge")
	if !ok {
		return
	}

	var input UpdateChargeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	charge, ok := findCharge(c, trainerID, id)
	if !ok {
		return
	}

	if input.Description != nil {
		charge.Description = *input.Description
	}
	if input.Amount != nil {
		charge.Amount = *input.Amount
	}
	if input.DueDate != nil {
		charge.DueDate = *input.DueDate
	}
	if input.PaymentLink != nil {
		charge.PaymentLink = *input.PaymentLink
	}
	if input.Status != nil {
		markStatus(charge, *input.Status)
	}

	if err := config.DB.Omit(clause.Associations).Save(charge).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update charge")
		return
	}

	c.JSON(http.StatusOK, charge)
}

func markStatus(charge *models.Charge, status string) {
	charge.Status = status
	if status == models.ChargePaid && charge.PaidAt == nil {
		now := time.Now()
		charge.PaidAt = &now
	}
	if status != models.ChargePaid {
		charge.PaidAt = nil
	}
}

// PayCharge marks a pending charge as paid. Paying twice is a conflict.
func PayCharge(c *gin.Context) {
	trainerID, ok := utils.TrainerID(c)
	if !ok {
		return
	}
	id, ok := utils.ParamUUID(c, "id", "charge")
	if !ok {
		return
	}

	charge, ok := findCharge(c, trainerID, id)
	if !ok {
		return
	}
	if charge.Status != models.ChargePending {
		utils.RespondWithError(c, http.StatusConflict, "Charge is not pending")
		return
	}

	markStatus(charge, models.ChargePaid)
	if err := config.DB.Omit(clause.Associations).Save(charge).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update charge")
		return
	}

	c.JSON(http.StatusOK, charge)
}

func DeleteCharge(c *gin.Context) {
	trainerID, ok := utils.TrainerID(c)
	if !ok {
		return
	}
	id, ok := utils.ParamUUID(c, "id", "charge")
	if !ok {
		return
	}

	result := config.DB.Where("trainer_id = ? AND id = ?", trainerID, id).Delete(&models.Charge{})
	if result.Error != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete charge")
		return
	}
	if result.RowsAffected == 0 {
		utils.RespondWithError(c, http.StatusNotFound, "Charge not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Charge deleted successfully"})
}
