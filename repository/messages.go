package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"trainerpro-backend/models"
)

type LogFilter struct {
	RecipientID *uuid.UUID
	Status      string
	TriggerType string
	Limit       int
}

func (s *Store) ListMessageLogs(ctx context.Context, trainerID uuid.UUID, f LogFilter) ([]models.MessageLog, error) {
	q := s.db.WithContext(ctx).Where("trainer_id = ?", trainerID)
	if f.RecipientID != nil {
		q = q.Where("recipient_id = ?", *f.RecipientID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.TriggerType != "" {
		q = q.Where("trigger_type = ?", f.TriggerType)
	}
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var logs []models.MessageLog
	err := q.Order("created_at DESC").Limit(limit).Find(&logs).Error
	return logs, errors.Wrap(err, "listing message logs")
}

// TriggerCount is one row of the messaging overview.
type TriggerCount struct {
	TriggerType string `json:"triggerType"`
	Status      string `json:"status"`
	Total       int64  `json:"total"`
}

// CountOutboundSince groups outbound log rows created at or after since.
func (s *Store) CountOutboundSince(ctx context.Context, trainerID uuid.UUID, since time.Time) ([]TriggerCount, error) {
	var rows []TriggerCount
	err := s.db.WithContext(ctx).Model(&models.MessageLog{}).
		Select("trigger_type, status, COUNT(*) AS total").
		Where("trainer_id = ? AND direction = ? AND created_at >= ?", trainerID, models.DirectionOutbound, since).
		Group("trigger_type, status").
		Order("trigger_type, status").
		Scan(&rows).Error
	return rows, errors.Wrap(err, "counting message logs")
}
