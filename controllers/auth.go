package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"trainerpro-backend/config"
	"trainerpro-backend/models"
	"trainerpro-backend/utils"
)

type RegisterInput struct {
	Email      string `json:"email" binding:"required,email"`
	Phone      string `json:"phone"`
	Name       string `json:"name" binding:"required"`
	Password   string `json:"password" binding:"required,min=8"`
	SignupLink string `json:"signupLink" binding:"omitempty,url"`
}

type LoginInput struct {
	Identifier string `json:"identifier" binding:"required"` // email or phone
	Password   string `json:"password" binding:"required"`
}

func trainerJSON(t models.Trainer) gin.H {
	return gin.H{
		"id":         t.ID,
		"email":      t.Email,
		"name":       t.Name,
		"phone":      t.Phone,
		"signupLink": t.SignupLink,
	}
}

func setTokenCookie(c *gin.Context, token string) {
	c.SetCookie("token", token, utils.TokenMaxAge(), "/", "", true, true)
}

func Register(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))

	var existing models.Trainer
	result := config.DB.Where("email = ?", email).First(&existing)
	if result.Error == nil {
		utils.RespondWithError(c, http.StatusConflict, "Email already registered")
		return
	} else if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}

	trainer := models.Trainer{
		Email:      email,
		Phone:      input.Phone,
		Name:       input.Name,
		Password:   input.Password, // hashed in BeforeCreate
		SignupLink: input.SignupLink,
		IsActive:   true,
	}
	if err := config.DB.Create(&trainer).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create trainer")
		return
	}

	token, err := utils.GenerateToken(trainer.ID.String())
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}
	setTokenCookie(c, token)

	c.JSON(http.StatusCreated, gin.H{
		"message": "Registration successful",
		"token":   token,
		"trainer": trainerJSON(trainer),
	})
}

func Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input")
		return
	}
	identifier := strings.TrimSpace(input.Identifier)

	var trainer models.Trainer
	result := config.DB.Where("email = ? OR phone = ?", strings.ToLower(identifier), identifier).First(&trainer)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusUnauthorized, "Invalid credentials")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if !utils.CheckPasswordHash(input.Password, trainer.Password) {
		utils.RespondWithError(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if !trainer.IsActive {
		utils.RespondWithError(c, http.StatusForbidden, "Account disabled")
		return
	}

	token, err := utils.GenerateToken(trainer.ID.String())
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	now := time.Now()
	config.DB.Model(&trainer).Update("last_login", &now)
	setTokenCookie(c, token)

	c.JSON(http.StatusOK, gin.H{
		"token":   token,
		"trainer": trainerJSON(trainer),
	})
}

func Me(c *gin.Context) {
	trainerID, ok := utils.TrainerID(c)
	if !ok {
		return
	}

	var trainer models.Trainer
	if err := config.DB.First(&trainer, "id = ?", trainerID).Error; err != nil {
		utils.RespondWithError(c, http.StatusUnauthorized, "Trainer not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"trainer": trainerJSON(trainer)})
}
