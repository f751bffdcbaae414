// Package repository holds the gorm queries the automation worker and the
// API share.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"trainerpro-backend/models"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

func (s *Store) ActiveTrainers(ctx context.Context) ([]models.Trainer, error) {
	var trainers []models.Trainer
	err := s.db.WithContext(ctx).Where("is_active = ?", true).Order("created_at").Find(&trainers).Error
	return trainers, errors.Wrap(err, "loading active trainers")
}

func (s *Store) Trainer(ctx context.Context, id uuid.UUID) (*models.Trainer, error) {
	var trainer models.Trainer
	if err := s.db.WithContext(ctx).First(&trainer, "id = ?", id).Error; err != nil {
		return nil, errors.Wrap(err, "loading trainer")
	}
	return &trainer, nil
}

// ActiveRules returns the trainer's active rules, optionally restricted to
// the given trigger types.
func (s *Store) ActiveRules(ctx context.Context, trainerID uuid.UUID, triggers ...string) ([]models.AutomationRule, error) {
	q := s.db.WithContext(ctx).Where("trainer_id = ? AND is_active = ?", trainerID, true)
	if len(triggers) > 0 {
		q = q.Where("trigger_type IN ?", triggers)
	}
	var rules []models.AutomationRule
	err := q.Order("created_at").Find(&rules).Error
	return rules, errors.Wrap(err, "loading automation rules")
}

// ContactableRecipients returns opted-in, active recipients of one kind.
func (s *Store) ContactableRecipients(ctx context.Context, trainerID uuid.UUID, kind string) ([]models.Recipient, error) {
	var recipients []models.Recipient
	err := s.db.WithContext(ctx).
		Where("trainer_id = ? AND kind = ? AND opt_in = ? AND status = ?", trainerID, kind, true, models.StatusActive).
		Order("created_at").
		Find(&recipients).Error
	return recipients, errors.Wrap(err, "loading recipients")
}

// RecipientsByPhone returns every recipient with the phone, one per trainer
// that registered it.
func (s *Store) RecipientsByPhone(ctx context.Context, phone string) ([]models.Recipient, error) {
	var recipients []models.Recipient
	err := s.db.WithContext(ctx).Where("phone = ?", phone).Order("created_at").Find(&recipients).Error
	return recipients, errors.Wrap(err, "loading recipients by phone")
}

// ScheduledSessionsBetween returns sessions still in "scheduled" state whose
// start falls in [from, to], with their recipient loaded.
func (s *Store) ScheduledSessionsBetween(ctx context.Context, trainerID uuid.UUID, from, to time.Time) ([]models.Session, error) {
	var sessions []models.Session
	err := s.db.WithContext(ctx).
		Preload("Recipient").
		Where("trainer_id = ? AND status = ? AND scheduled_at BETWEEN ? AND ?", trainerID, models.SessionScheduled, from, to).
		Order("scheduled_at").
		Find(&sessions).Error
	return sessions, errors.Wrap(err, "loading sessions")
}

func (s *Store) PendingCharges(ctx context.Context, trainerID uuid.UUID) ([]models.Charge, error) {
	var charges []models.Charge
	err := s.db.WithContext(ctx).
		Preload("Recipient").
		Where("trainer_id = ? AND status = ?", trainerID, models.ChargePending).
		Order("due_date").
		Find(&charges).Error
	return charges, errors.Wrap(err, "loading charges")
}

// ClaimDispatchKey inserts the key and reports whether this call created it.
// A false result means the trigger already fired for the period.
func (s *Store) ClaimDispatchKey(ctx context.Context, key *models.DispatchKey) (bool, error) {
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(key)
	if res.Error != nil {
		return false, errors.Wrap(res.Error, "claiming dispatch key")
	}
	return res.RowsAffected == 1, nil
}

// DispatchKeyTaken reports whether the key was already claimed. It does not
// claim it.
func (s *Store) DispatchKeyTaken(ctx context.Context, key *models.DispatchKey) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.DispatchKey{}).
		Where("recipient_id = ? AND category = ? AND period = ?", key.RecipientID, key.Category, key.Period).
		Count(&n).Error
	if err != nil {
		return false, errors.Wrap(err, "looking up dispatch key")
	}
	return n > 0, nil
}

func (s *Store) AppendMessageLog(ctx context.Context, entry *models.MessageLog) error {
	return errors.Wrap(s.db.WithContext(ctx).Create(entry).Error, "appending message log")
}

func (s *Store) MarkContacted(ctx context.Context, recipientID uuid.UUID, at time.Time) error {
	err := s.db.WithContext(ctx).Model(&models.Recipient{}).
		Where("id = ?", recipientID).
		Update("last_contacted_at", at).Error
	return errors.Wrap(err, "updating last contact")
}
