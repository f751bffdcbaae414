package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"trainerpro-backend/messaging"
	"trainerpro-backend/models"
)

var brt = time.FixedZone("BRT", -3*60*60)

// wednesday 2026-10-14 14:00 in São Paulo.
var fixedNow = time.Date(2026, time.October, 14, 14, 0, 0, 0, brt)

type fakeStore struct {
	mu         sync.Mutex
	trainers   []models.Trainer
	rules      []models.AutomationRule
	recipients []models.Recipient
	sessions   []models.Session
	charges    []models.Charge
	claims     map[string]bool
	logs       []models.MessageLog

	sessionsErr error
	panicOn     string
}

func newFakeStore(trainer models.Trainer) *fakeStore {
	return &fakeStore{trainers: []models.Trainer{trainer}, claims: map[string]bool{}}
}

func (f *fakeStore) ActiveTrainers(ctx context.Context) ([]models.Trainer, error) {
	return f.trainers, nil
}

func (f *fakeStore) ActiveRules(ctx context.Context, trainerID uuid.UUID, triggers ...string) ([]models.AutomationRule, error) {
	var out []models.AutomationRule
	for _, r := range f.rules {
		if r.TrainerID != trainerID || !r.IsActive {
			continue
		}
		for _, t := range triggers {
			if r.TriggerType == t {
				if f.panicOn == t {
					panic("boom")
				}
				out = append(out, r)
			}
		}
	}
	return out, nil
}

func (f *fakeStore) ContactableRecipients(ctx context.Context, trainerID uuid.UUID, kind string) ([]models.Recipient, error) {
	var out []models.Recipient
	for _, r := range f.recipients {
		if r.TrainerID == trainerID && r.Kind == kind && r.Contactable() {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) ScheduledSessionsBetween(ctx context.Context, trainerID uuid.UUID, from, to time.Time) ([]models.Session, error) {
	if f.sessionsErr != nil {
		return nil, f.sessionsErr
	}
	var out []models.Session
	for _, s := range f.sessions {
		if s.TrainerID == trainerID && s.Status == models.SessionScheduled &&
			!s.ScheduledAt.Before(from) && !s.ScheduledAt.After(to) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStore) PendingCharges(ctx context.Context, trainerID uuid.UUID) ([]models.Charge, error) {
	var out []models.Charge
	for _, c := range f.charges {
		if c.TrainerID == trainerID && c.Status == models.ChargePending {
			out = append(out, c)
		}
	}
	return out, nil
}

func dispatchKeyString(key *models.DispatchKey) string {
	return key.RecipientID.String() + "|" + key.Category + "|" + key.Period
}

func (f *fakeStore) DispatchKeyTaken(ctx context.Context, key *models.DispatchKey) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.claims[dispatchKeyString(key)], nil
}

func (f *fakeStore) ClaimDispatchKey(ctx context.Context, key *models.DispatchKey) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := dispatchKeyString(key)
	if f.claims[k] {
		return false, nil
	}
	f.claims[k] = true
	return true, nil
}

func (f *fakeStore) AppendMessageLog(ctx context.Context, entry *models.MessageLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	f.logs = append(f.logs, *entry)
	return nil
}

func (f *fakeStore) MarkContacted(ctx context.Context, recipientID uuid.UUID, at time.Time) error {
	for i := range f.recipients {
		if f.recipients[i].ID == recipientID {
			f.recipients[i].LastContactedAt = &at
		}
	}
	return nil
}

func (f *fakeStore) RecipientsByPhone(ctx context.Context, phone string) ([]models.Recipient, error) {
	var out []models.Recipient
	for _, r := range f.recipients {
		if r.Phone == phone {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) logsWithStatus(status string) []models.MessageLog {
	var out []models.MessageLog
	for _, l := range f.logs {
		if l.Status == status {
			out = append(out, l)
		}
	}
	return out
}

type sentMessage struct {
	phone string
	text  string
}

type fakeSender struct {
	mu        sync.Mutex
	configErr error
	sendErr   error
	sent      []sentMessage
	onSend    func()
}

func (f *fakeSender) Name() string { return "fake" }

func (f *fakeSender) CheckConfig() error { return f.configErr }

func (f *fakeSender) Send(ctx context.Context, phone, text string) (string, error) {
	f.mu.Lock()
	f.sent = append(f.sent, sentMessage{phone: phone, text: text})
	err, hook := f.sendErr, f.onSend
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	if err != nil {
		return "", err
	}
	return "msg-" + phone, nil
}

func (f *fakeSender) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

var _ messaging.Sender = (*fakeSender)(nil)

type recordingPublisher struct {
	mu     sync.Mutex
	events []DispatchEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, event DispatchEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

var errDatabaseDown = errors.New("database down")

func testTrainer() models.Trainer {
	return models.Trainer{ID: uuid.New(), Name: "Carlos Personal", IsActive: true, SignupLink: "https://example.com/start"}
}

func testRecipient(trainer models.Trainer, kind, name, phone string) models.Recipient {
	return models.Recipient{
		ID:        uuid.New(),
		TrainerID: trainer.ID,
		Kind:      kind,
		Name:      name,
		Phone:     phone,
		OptIn:     true,
		Status:    models.StatusActive,
		CreatedAt: fixedNow.AddDate(0, -6, 0),
	}
}

func testRule(trainer models.Trainer, trigger, message string) models.AutomationRule {
	return models.AutomationRule{
		ID:          uuid.New(),
		TrainerID:   trainer.ID,
		Name:        trigger,
		TriggerType: trigger,
		Message:     message,
		IsActive:    true,
		WindowStart: "08:00",
		WindowEnd:   "20:00",
	}
}

func intPtr(v int) *int { return &v }

func newTestService(store *fakeStore, sender *fakeSender, now time.Time) *AutomationService {
	return NewAutomationService(store, sender, Options{
		Now:      func() time.Time { return now },
		Location: brt,
		Logger:   discardLogger(),
	})
}

// runAt runs one tick per instant against the same store and sender.
func runAt(t *testing.T, store *fakeStore, sender *fakeSender, instants ...time.Time) []*RunReport {
	t.Helper()
	reports := make([]*RunReport, 0, len(instants))
	for _, now := range instants {
		report, err := newTestService(store, sender, now).RunOnce(context.Background())
		require.NoError(t, err, "run at %s", now)
		reports = append(reports, report)
	}
	return reports
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
