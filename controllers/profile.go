package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"trainerpro-backend/config"
	"trainerpro-backend/models"
	"trainerpro-backend/utils"
)

type UpdateProfileInput struct {
	Name       *string `json:"name"`
	Phone      *string `json:"phone"`
	SignupLink *string `json:"signupLink" binding:"omitempty,url"`
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8"`
}

func GetProfile(c *gin.Context) {
	trainerID, ok := utils.TrainerID(c)
	if !ok {
		return
	}

	var trainer models.Trainer
	if err := config.DB.First(&trainer, "id = ?", trainerID).Error; err != nil {
		utils.RespondWithError(c, http.StatusNotFound, "Trainer not found")
		return
	}

	c.JSON(http.StatusOK, trainerJSON(trainer))
}

func UpdateProfile(c *gin.Context) {
	trainerID, ok := utils.TrainerID(c)
	if !ok {
		return
	}

	var input UpdateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	updates := map[string]interface{}{}
	if input.Name != nil {
		updates["name"] = *input.Name
	}
	if input.Phone != nil {
		updates["phone"] = *input.Phone
	}
	if input.SignupLink != nil {
		updates["signup_link"] = *input.SignupLink
	}
	if len(updates) == 0 {
		utils.RespondWithError(c, http.StatusBadRequest, "Nothing to update")
		return
	}

	var trainer models.Trainer
	if err := config.DB.First(&trainer, "id = ?", trainerID).Error; err != nil {
		utils.RespondWithError(c, http.StatusNotFound, "Trainer not found")
		return
	}
	if err := config.DB.Model(&trainer).Updates(updates).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update profile")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully", "trainer": trainerJSON(trainer)})
}

func ChangePassword(c *gin.Context) {
	trainerID, ok := utils.TrainerID(c)
	if !ok {
		return
	}

	var input ChangePasswordInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var trainer models.Trainer
	if err := config.DB.First(&trainer, "id = ?", trainerID).Error; err != nil {
		utils.RespondWithError(c, http.StatusNotFound, "Trainer not found")
		return
	}
	if !utils.CheckPasswordHash(input.CurrentPassword, trainer.Password) {
		utils.RespondWithError(c, http.StatusUnauthorized, "Current password is incorrect")
		return
	}

	hashed, err := utils.HashPassword(input.NewPassword)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to hash password")
		return
	}
	if err := config.DB.Model(&trainer).Update("password", hashed).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update password")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully"})
}
