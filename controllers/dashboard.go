package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"trainerpro-backend/config"
	"trainerpro-backend/models"
	"trainerpro-backend/repository"
	"trainerpro-backend/utils"
)

type MessagingOverview struct {
	ActiveStudents    int64                     `json:"activeStudents"`
	ActiveLeads       int64                     `json:"activeLeads"`
	OptedOut          int64                     `json:"optedOut"`
	PendingCharges    int64                     `json:"pendingCharges"`
	PendingAmount     float64                   `json:"pendingAmount"`
	SessionsNext24h   int64                     `json:"sessionsNext24h"`
	ActiveRules       int64                     `json:"activeRules"`
	SentToday         int64                     `json:"sentToday"`
	FailedToday       int64                     `json:"failedToday"`
	TodayByTrigger    []repository.TriggerCount `json:"todayByTrigger"`
	BirthdaysThisWeek []UpcomingBirthday        `json:"birthdaysThisWeek"`
}

type UpcomingBirthday struct {
	Name string `json:"name"`
	Date string `json:"date"` // "Today", "Tomorrow", "in N days"
}

// GetOverview summarizes today's automated messaging for the dashboard.
func (mc *MessageController) GetOverview(c *gin.Context) {
	trainerID, ok := utils.TrainerID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	now := time.Now().In(mc.location())
	db := config.DB.WithContext(ctx)

	var overview MessagingOverview
	var students []models.Recipient
	recipients := db.Model(&models.Recipient{}).Where("trainer_id = ?", trainerID).Session(&gorm.Session{})
	pending := db.Model(&models.Charge{}).Where("trainer_id = ? AND status = ?", trainerID, models.ChargePending).Session(&gorm.Session{})
	queries := []*gorm.DB{
		recipients.Where("kind = ? AND status = ? AND opt_in = ?", models.KindStudent, models.StatusActive, true).Count(&overview.ActiveStudents),
		recipients.Where("kind = ? AND status = ? AND opt_in = ?", models.KindLead, models.StatusActive, true).Count(&overview.ActiveLeads),
		recipients.Where("opt_in = ?", false).Count(&overview.OptedOut),
		pending.Count(&overview.PendingCharges),
		pending.Select("COALESCE(SUM(amount), 0)").Scan(&overview.PendingAmount),
		db.Model(&models.Session{}).
			Where("trainer_id = ? AND status = ? AND scheduled_at BETWEEN ? AND ?", trainerID, models.SessionScheduled, now, now.Add(24*time.Hour)).
			Count(&overview.SessionsNext24h),
		db.Model(&models.AutomationRule{}).Where("trainer_id = ? AND is_active = ?", trainerID, true).Count(&overview.ActiveRules),
		db.Where("trainer_id = ? AND kind = ? AND birth_date IS NOT NULL", trainerID, models.KindStudent).Find(&students),
	}
	for _, q := range queries {
		if q.Error != nil {
			mc.Log.Error("overview query failed", "trainer_id", trainerID, "error", q.Error)
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to load overview")
			return
		}
	}

	counts, err := mc.Store.CountOutboundSince(ctx, trainerID, utils.BeginningOfDay(now))
	if err != nil {
		mc.Log.Error("overview query failed", "trainer_id", trainerID, "error", err)
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to count messages")
		return
	}
	overview.TodayByTrigger = counts
	for _, row := range counts {
		switch row.Status {
		case models.MessageSent:
			overview.SentToday += row.Total
		case models.MessageFailed:
			overview.FailedToday += row.Total
		}
	}
	overview.BirthdaysThisWeek = upcomingBirthdays(students, now, 7)

	c.JSON(http.StatusOK, overview)
}

func upcomingBirthdays(students []models.Recipient, now time.Time, days int) []UpcomingBirthday {
	out := []UpcomingBirthday{}
	for offset := 0; offset < days; offset++ {
		day := now.AddDate(0, 0, offset)
		for _, s := range students {
			if !s.HasBirthdayOn(day) {
				continue
			}
			label := "in " + strconv.Itoa(offset) + " days"
			switch offset {
			case 0:
				label = "Today"
			case 1:
				label = "Tomorrow"
			}
			out = append(out, UpcomingBirthday{Name: s.Name, Date: label})
		}
	}
	return out
}
