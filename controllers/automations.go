package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"trainerpro-backend/config"
	"trainerpro-backend/models"
	"trainerpro-backend/utils"
)

type AutomationRuleInput struct {
	Name            string `json:"name" binding:"required"`
	TriggerType     string `json:"triggerType" binding:"required"`
	Message         string `json:"message" binding:"required"`
	IsActive        *bool  `json:"isActive"`
	WindowStart     string `json:"windowStart"`
	WindowEnd       string `json:"windowEnd"`
	HoursBefore     *int   `json:"hoursBefore"`
	DaysAfter       *int   `json:"daysAfter"`
	IncludeWeekends bool   `json:"includeWeekends"`
}

type UpdateAutomationRuleInput struct {
	Name            *string `json:"name"`
	TriggerType     *string `json:"triggerType"`
	Message         *string `json:"message"`
	IsActive        *bool   `json:"isActive"`
	WindowStart     *string `json:"windowStart"`
	WindowEnd       *string `json:"windowEnd"`
	HoursBefore     *int    `json:"hoursBefore"`
	DaysAfter       *int    `json:"daysAfter"`
	IncludeWeekends *bool   `json:"includeWeekends"`
}

func CreateAutomationRule(c *gin.Context) {
	trainerID, ok := utils.TrainerID(c)
	if !ok {
		return
	}

	var input AutomationRuleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	rule := models.AutomationRule{
		TrainerID:       trainerID,
		Name:            input.Name,
		TriggerType:     input.TriggerType,
		Message:         input.Message,
		IsActive:        true,
		WindowStart:     input.WindowStart,
		WindowEnd:       input.WindowEnd,
		HoursBefore:     input.HoursBefore,
		DaysAfter:       input.DaysAfter,
		IncludeWeekends: input.IncludeWeekends,
	}
	if input.IsActive != nil {
		rule.IsActive = *input.IsActive
	}
	if err := rule.Validate(); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	if err := config.DB.Create(&rule).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create automation rule")
		return
	}

	c.JSON(http.StatusCreated, rule)
}

// GetAutomationRules lists the trainer's rules, optionally filtered by ?triggerType=.
func GetAutomationRules(c *gin.Context) {
	trainerID, ok := utils.TrainerID(c)
	if !ok {
		return
	}

	q := config.DB.Where("trainer_id = ?", trainerID)
	if trigger := c.Query("triggerType"); trigger != "" {
		q = q.Where("trigger_type = ?", trigger)
	}
	var rules []models.AutomationRule
	if err := q.Order("created_at").Find(&rules).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve automation rules")
		return
	}

	c.JSON(http.StatusOK, rules)
}

func findRule(c *gin.Context, trainerID, id uuid.UUID) (*models.AutomationRule, bool) {
	var rule models.AutomationRule
	if err := config.DB.Where("trainer_id = ? AND id = ?", trainerID, id).First(&rule).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Automation rule not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return nil, false
	}
	return &rule, true
}

func GetAutomationRule(c *gin.Context) {
	trainerID, ok := utils.TrainerID(c)
	if !ok {
		return
	}
	id, ok := utils.ParamUUID(c, "id", "automation rule")
	if !ok {
		return
	}

	rule, ok := findRule(c, trainerID, id)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, rule)
}

func UpdateAutomationRule(c *gin.Context) {
	trainerID, ok := utils.TrainerID(c)
	if !ok {
		return
	}
	id, ok := utils.ParamUUID(c, "id", "automation rule")
	if !ok {
		return
	}

	var input UpdateAutomationRuleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	rule, ok := findRule(c, trainerID, id)
	if !ok {
		return
	}

	if input.Name != nil {
		rule.Name = *input.Name
	}
	if input.TriggerType != nil {
		rule.TriggerType = *input.TriggerType
	}
	if input.Message != nil {
		rule.Message = *input.Message
	}
	if input.IsActive != nil {
		rule.IsActive = *input.IsActive
	}
	if input.WindowStart != nil {
		rule.WindowStart = *input.WindowStart
	}
	if input.WindowEnd != nil {
		rule.WindowEnd = *input.WindowEnd
	}
	if input.HoursBefore != nil {
		rule.HoursBefore = input.HoursBefore
	}
	if input.DaysAfter != nil {
		rule.DaysAfter = input.DaysAfter
	}
	if input.IncludeWeekends != nil {
		rule.IncludeWeekends = *input.IncludeWeekends
	}
	if err := rule.Validate(); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	if err := config.DB.Save(rule).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update automation rule")
		return
	}

	c.JSON(http.StatusOK, rule)
}

func DeleteAutomationRule(c *gin.Context) {
	trainerID, ok := utils.TrainerID(c)
	if !ok {
		return
	}
	id, ok := utils.ParamUUID(c, "id", "automation rule")
	if !ok {
		return
	}

	result := config.DB.Where("trainer_id = ? AND id = ?", trainerID, id).Delete(&models.AutomationRule{})
	if result.Error != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete automation rule")
		return
	}
	if result.RowsAffected == 0 {
		utils.RespondWithError(c, http.StatusNotFound, "Automation rule not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Automation rule deleted successfully"})
}
