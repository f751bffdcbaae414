package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"trainerpro-backend/messaging"
	"trainerpro-backend/models"
)

// ErrOptedOut is returned by SendManual for recipients that cannot be contacted.
var ErrOptedOut = errors.New("recipient has not opted in or is not active")

// Store is the persistence the worker needs. *repository.Store satisfies it.
type Store interface {
	ActiveTrainers(ctx context.Context) ([]models.Trainer, error)
	ActiveRules(ctx context.Context, trainerID uuid.UUID, triggers ...string) ([]models.AutomationRule, error)
	ContactableRecipients(ctx context.Context, trainerID uuid.UUID, kind string) ([]models.Recipient, error)
	ScheduledSessionsBetween(ctx context.Context, trainerID uuid.UUID, from, to time.Time) ([]models.Session, error)
	PendingCharges(ctx context.Context, trainerID uuid.UUID) ([]models.Charge, error)
	DispatchKeyTaken(ctx context.Context, key *models.DispatchKey) (bool, error)
	ClaimDispatchKey(ctx context.Context, key *models.DispatchKey) (bool, error)
	AppendMessageLog(ctx context.Context, entry *models.MessageLog) error
	MarkContacted(ctx context.Context, recipientID uuid.UUID, at time.Time) error
}

type Options struct {
	// SendInterval is the minimum spacing between two provider calls.
	// Zero or less disables the limiter.
	SendInterval time.Duration
	CountryCode  string
	// Now is the worker clock; defaults to time.Now.
	Now       func() time.Time
	Location  *time.Location
	Publisher Publisher
	Logger    *slog.Logger
}

// AutomationService evaluates automation rules and dispatches the resulting
// messages one at a time.
type AutomationService struct {
	store       Store
	sender      messaging.Sender
	publisher   Publisher
	limiter     *rate.Limiter
	countryCode string
	now         func() time.Time
	loc         *time.Location
	log         *slog.Logger
}

func NewAutomationService(store Store, sender messaging.Sender, opts Options) *AutomationService {
	s := &AutomationService{
		store:       store,
		sender:      sender,
		publisher:   opts.Publisher,
		countryCode: opts.CountryCode,
		now:         opts.Now,
		loc:         opts.Location,
		log:         opts.Logger,
	}
	if s.publisher == nil {
		s.publisher = NopPublisher{}
	}
	if s.countryCode == "" {
		s.countryCode = messaging.DefaultCountryCode
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if opts.SendInterval > 0 {
		s.limiter = rate.NewLimiter(rate.Every(opts.SendInterval), 1)
	} else {
		s.limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return s
}

// CategoryResult is the outcome of one rule category in one run.
type CategoryResult struct {
	Category string   `json:"category"`
	Sent     int      `json:"sent"`
	Failed   int      `json:"failed"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
	Message  string   `json:"message,omitempty"`
}

type RunReport struct {
	StartedAt  time.Time         `json:"startedAt"`
	FinishedAt time.Time         `json:"finishedAt"`
	Results    []*CategoryResult `json:"results"`
}

func newRunReport(startedAt time.Time) *RunReport {
	report := &RunReport{StartedAt: startedAt}
	for _, c := range categories {
		report.Results = append(report.Results, &CategoryResult{Category: c.name})
	}
	return report
}

// Result returns the entry for a category, or nil.
func (r *RunReport) Result(category string) *CategoryResult {
	for _, res := range r.Results {
		if res.Category == category {
			return res
		}
	}
	return nil
}

func (r *RunReport) Totals() (sent, failed int) {
	for _, res := range r.Results {
		sent += res.Sent
		failed += res.Failed
	}
	return sent, failed
}

// RunOnce evaluates every category for every active trainer. All decisions of
// one run use the same clock reading.
func (s *AutomationService) RunOnce(ctx context.Context) (*RunReport, error) {
	now := s.now().In(s.loc)
	trainers, err := s.store.ActiveTrainers(ctx)
	if err != nil {
		return nil, err
	}

	report := newRunReport(now)
	for i, c := range categories {
		for _, trainer := range trainers {
			if ctx.Err() != nil {
				break
			}
			s.runCategory(ctx, c, trainer, now, report.Results[i])
		}
	}
	report.FinishedAt = s.now().In(s.loc)

	sent, failed := report.Totals()
	s.log.Info("automation run finished",
		"trainers", len(trainers),
		"sent", sent,
		"failed", failed,
		"duration", report.FinishedAt.Sub(report.StartedAt).String(),
	)
	return report, ctx.Err()
}

// RunForTrainer runs every category for a single trainer.
func (s *AutomationService) RunForTrainer(ctx context.Context, trainer models.Trainer) (*RunReport, error) {
	now := s.now().In(s.loc)
	report := newRunReport(now)
	for i, c := range categories {
		if ctx.Err() != nil {
			break
		}
		s.runCategory(ctx, c, trainer, now, report.Results[i])
	}
	report.FinishedAt = s.now().In(s.loc)
	return report, ctx.Err()
}

func (s *AutomationService) runCategory(ctx context.Context, c category, trainer models.Trainer, now time.Time, result *CategoryResult) {
	defer func() {
		if r := recover(); r != nil {
			s.categoryError(c, trainer, result, fmt.Errorf("panic: %v", r))
		}
	}()

	if err := s.sender.CheckConfig(); err != nil {
		result.Message = "provider not configured"
		return
	}

	rules, err := s.store.ActiveRules(ctx, trainer.ID, c.triggers...)
	if err != nil {
		s.categoryError(c, trainer, result, err)
		return
	}

	for _, rule := range rules {
		if !rule.AllowsDay(now) || !rule.InWindow(now) {
			continue
		}
		candidates, err := c.collect(ctx, s.store, trainer, rule, now)
		if err != nil {
			s.categoryError(c, trainer, result, err)
			return
		}
		for _, cand := range candidates {
			if ctx.Err() != nil {
				return
			}
			s.dispatch(ctx, trainer, rule, cand, result)
		}
	}
}

func (s *AutomationService) categoryError(c category, trainer models.Trainer, result *CategoryResult, err error) {
	msg := "Erro geral: " + err.Error()
	result.Errors = append(result.Errors, msg)
	if result.Message == "" {
		result.Message = msg
	}
	s.log.Error("automation category failed", "category", c.name, "trainer_id", trainer.ID, "error", err)
}

func (s *AutomationService) dispatch(ctx context.Context, trainer models.Trainer, rule models.AutomationRule, cand candidate, result *CategoryResult) {
	r := cand.recipient
	if !r.Contactable() {
		result.Skipped++
		return
	}

	keys := dispatchKeys(r, rule, cand)
	for _, key := range keys {
		taken, err := s.store.DispatchKeyTaken(ctx, key)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", r.Name, err))
			return
		}
		if taken {
			result.Skipped++
			return
		}
	}

	// A cancelled run leaves the keys free for the next tick.
	if err := s.limiter.Wait(ctx); err != nil {
		return
	}

	for _, key := range keys {
		claimed, err := s.store.ClaimDispatchKey(ctx, key)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", r.Name, err))
			return
		}
		if !claimed {
			result.Skipped++
			return
		}
	}

	// The keys are ours: finish the attempt and its log row even if the run
	// is cancelled meanwhile.
	ctx = context.WithoutCancel(ctx)

	entry := &models.MessageLog{
		TrainerID:   trainer.ID,
		RecipientID: &r.ID,
		RuleID:      &rule.ID,
		TriggerType: rule.TriggerType,
		Direction:   models.DirectionOutbound,
		Body:        RenderTemplate(rule.Message, cand.vars),
	}
	sendErr := s.send(ctx, r, entry)
	s.record(ctx, entry)

	if sendErr != nil {
		result.Failed++
		result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", r.Name, sendErr))
		s.log.Warn("automation send failed",
			"category", rule.Category(),
			"trainer_id", trainer.ID,
			"recipient_id", r.ID,
			"error", sendErr,
		)
		return
	}
	result.Sent++
	if err := s.store.MarkContacted(ctx, r.ID, entry.CreatedAt); err != nil {
		s.log.Warn("could not update last contact", "recipient_id", r.ID, "error", err)
	}
}

// dispatchKeys lists what a candidate claims: the calendar day of the run and,
// for elapsed-time triggers, the occurrence.
func dispatchKeys(r models.Recipient, rule models.AutomationRule, cand candidate) []*models.DispatchKey {
	keys := []*models.DispatchKey{{RecipientID: r.ID, Category: rule.Category(), Period: cand.period, RuleID: rule.ID}}
	if cand.occurrence != "" {
		keys = append(keys, &models.DispatchKey{RecipientID: r.ID, Category: rule.Category(), Period: cand.occurrence, RuleID: rule.ID})
	}
	return keys
}

// send makes one provider call. The outcome is written onto entry.
func (s *AutomationService) send(ctx context.Context, r models.Recipient, entry *models.MessageLog) error {
	entry.Phone = r.Phone
	phone, err := messaging.FormatPhone(r.Phone, s.countryCode)
	if err == nil {
		entry.Phone = phone
		entry.ProviderMessageID, err = s.sender.Send(ctx, entry.Phone, entry.Body)
	}
	entry.CreatedAt = s.now()
	if err != nil {
		entry.Status = models.MessageFailed
		entry.ErrorMessage = err.Error()
		return err
	}
	entry.Status = models.MessageSent
	return nil
}

func (s *AutomationService) record(ctx context.Context, entry *models.MessageLog) {
	if err := s.store.AppendMessageLog(ctx, entry); err != nil {
		s.log.Error("could not append message log", "recipient_id", entry.RecipientID, "error", err)
	}
	s.publisher.Publish(ctx, newDispatchEvent(entry))
}

// SendManual sends an operator-written text right away. It ignores windows,
// dedup and the limiter but still refuses recipients that cannot be contacted.
func (s *AutomationService) SendManual(ctx context.Context, trainer models.Trainer, r models.Recipient, text string) (*models.MessageLog, error) {
	if !r.Contactable() {
		return nil, ErrOptedOut
	}
	if err := s.sender.CheckConfig(); err != nil {
		return nil, err
	}

	entry := &models.MessageLog{
		TrainerID:   trainer.ID,
		RecipientID: &r.ID,
		TriggerType: models.TriggerManual,
		Direction:   models.DirectionOutbound,
		Phone:       r.Phone,
		Body:        RenderTemplate(text, recipientVars(trainer, r)),
	}
	phone, err := messaging.FormatPhone(r.Phone, s.countryCode)
	if err == nil {
		entry.Phone = phone
		entry.ProviderMessageID, err = s.sender.Send(ctx, phone, entry.Body)
	}
	entry.CreatedAt = s.now()
	if err != nil {
		entry.Status = models.MessageFailed
		entry.ErrorMessage = err.Error()
	} else {
		entry.Status = models.MessageSent
	}

	s.record(ctx, entry)
	if err != nil {
		return entry, errors.Wrap(err, "sending message")
	}
	if err := s.store.MarkContacted(ctx, r.ID, entry.CreatedAt); err != nil {
		s.log.Warn("could not update last contact", "recipient_id", r.ID, "error", err)
	}
	return entry, nil
}
