package services

import (
	"context"
	"math"
	"time"

	"trainerpro-backend/models"
	"trainerpro-backend/utils"
)

// Report names of the rule categories, in the order a run evaluates them.
const (
	CategorySessionReminder  = models.TriggerSessionReminder
	CategoryPaymentReminder  = models.TriggerPaymentReminder
	CategoryPaymentOverdue   = models.TriggerPaymentOverdue
	CategoryBirthday         = models.TriggerBirthday
	CategoryLeadWelcome      = models.TriggerLeadWelcome
	CategoryLeadFollowup     = models.TriggerLeadFollowup
	CategoryLeadReactivation = models.CategoryLeadReactivation
)

const (
	defaultSessionHoursBefore = 24
	defaultPaymentHoursBefore = 24
	defaultOverdueDays        = 1
	defaultFollowupDays       = 2
	defaultReactivationDays   = 1

	sessionMatchSlack = 30 * time.Minute
	paymentMatchSlack = 2.0 // hours
)

// candidate is one recipient a rule wants to message now. Elapsed-time
// triggers also carry the occurrence they belong to, which is claimed next to
// the calendar-day period.
type candidate struct {
	recipient  models.Recipient
	vars       TemplateVars
	period     string
	occurrence string
}

type collectFunc func(ctx context.Context, store Store, trainer models.Trainer, rule models.AutomationRule, now time.Time) ([]candidate, error)

type category struct {
	name     string
	triggers []string
	collect  collectFunc
}

var categories = []category{
	{name: CategorySessionReminder, triggers: []string{models.TriggerSessionReminder}, collect: collectSessionReminders},
	{name: CategoryPaymentReminder, triggers: []string{models.TriggerPaymentReminder}, collect: collectPaymentReminders},
	{name: CategoryPaymentOverdue, triggers: []string{models.TriggerPaymentOverdue}, collect: collectPaymentOverdue},
	{name: CategoryBirthday, triggers: []string{models.TriggerBirthday}, collect: collectBirthdays},
	{name: CategoryLeadWelcome, triggers: []string{models.TriggerLeadWelcome}, collect: collectLeadWelcome},
	{name: CategoryLeadFollowup, triggers: []string{models.TriggerLeadFollowup}, collect: collectLeadFollowup},
	{
		name:     CategoryLeadReactivation,
		triggers: []string{models.TriggerLeadHot, models.TriggerLeadWarm, models.TriggerLeadCold},
		collect:  collectLeadReactivation,
	},
}

func collectSessionReminders(ctx context.Context, store Store, trainer models.Trainer, rule models.AutomationRule, now time.Time) ([]candidate, error) {
	target := now.Add(time.Duration(rule.HoursBeforeOr(defaultSessionHoursBefore)) * time.Hour)
	sessions, err := store.ScheduledSessionsBetween(ctx, trainer.ID, target.Add(-sessionMatchSlack), target.Add(sessionMatchSlack))
	if err != nil {
		return nil, err
	}

	out := make([]candidate, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, candidate{
			recipient:  s.Recipient,
			vars:       sessionVars(trainer, s, now.Location()),
			period:     models.DayPeriod(now),
			occurrence: models.OccurrencePeriod(s.ScheduledAt.In(now.Location())),
		})
	}
	return out, nil
}

func collectPaymentReminders(ctx context.Context, store Store, trainer models.Trainer, rule models.AutomationRule, now time.Time) ([]candidate, error) {
	charges, err := store.PendingCharges(ctx, trainer.ID)
	if err != nil {
		return nil, err
	}

	hoursBefore := float64(rule.HoursBeforeOr(defaultPaymentHoursBefore))
	var out []candidate
	for _, c := range charges {
		if math.Abs(c.HoursUntilDue(now)-hoursBefore) > paymentMatchSlack {
			continue
		}
		out = append(out, candidate{
			recipient:  c.Recipient,
			vars:       chargeVars(trainer, c, now),
			period:     models.DayPeriod(now),
			occurrence: models.OccurrencePeriod(c.DueDate.In(now.Location())),
		})
	}
	return out, nil
}

// collectPaymentOverdue fires on the exact overdue day only, never "at least".
// That day is a 24h stretch counted from the due time and may span two
// calendar days.
func collectPaymentOverdue(ctx context.Context, store Store, trainer models.Trainer, rule models.AutomationRule, now time.Time) ([]candidate, error) {
	charges, err := store.PendingCharges(ctx, trainer.ID)
	if err != nil {
		return nil, err
	}

	threshold := rule.DaysAfterOr(defaultOverdueDays)
	var out []candidate
	for _, c := range charges {
		if c.DaysOverdue(now) != threshold {
			continue
		}
		out = append(out, candidate{
			recipient:  c.Recipient,
			vars:       chargeVars(trainer, c, now),
			period:     models.DayPeriod(now),
			occurrence: models.OccurrencePeriod(c.DueDate.In(now.Location()).AddDate(0, 0, threshold)),
		})
	}
	return out, nil
}

func collectBirthdays(ctx context.Context, store Store, trainer models.Trainer, rule models.AutomationRule, now time.Time) ([]candidate, error) {
	students, err := store.ContactableRecipients(ctx, trainer.ID, models.KindStudent)
	if err != nil {
		return nil, err
	}

	var out []candidate
	for _, r := range students {
		if !r.HasBirthdayOn(now) {
			continue
		}
		vars := recipientVars(trainer, r)
		vars["data"] = FormatDate(now)
		out = append(out, candidate{recipient: r, vars: vars, period: models.DayPeriod(now)})
	}
	return out, nil
}

// collectLeadWelcome picks leads created during the last 24 hours. The
// welcome goes out once per lead, ever.
func collectLeadWelcome(ctx context.Context, store Store, trainer models.Trainer, rule models.AutomationRule, now time.Time) ([]candidate, error) {
	leads, err := store.ContactableRecipients(ctx, trainer.ID, models.KindLead)
	if err != nil {
		return nil, err
	}

	var out []candidate
	for _, r := range leads {
		age := now.Sub(r.CreatedAt)
		if age < 0 || age >= 24*time.Hour {
			continue
		}
		out = append(out, candidate{recipient: r, vars: recipientVars(trainer, r), period: models.PeriodOnce})
	}
	return out, nil
}

func collectLeadFollowup(ctx context.Context, store Store, trainer models.Trainer, rule models.AutomationRule, now time.Time) ([]candidate, error) {
	leads, err := store.ContactableRecipients(ctx, trainer.ID, models.KindLead)
	if err != nil {
		return nil, err
	}

	days := rule.DaysAfterOr(defaultFollowupDays)
	var out []candidate
	for _, r := range leads {
		if int(now.Sub(r.CreatedAt).Hours()/24) != days {
			continue
		}
		out = append(out, candidate{
			recipient:  r,
			vars:       recipientVars(trainer, r),
			period:     models.DayPeriod(now),
			occurrence: models.OccurrencePeriod(r.CreatedAt.In(now.Location()).AddDate(0, 0, days)),
		})
	}
	return out, nil
}

// collectLeadReactivation matches leads whose temperature maps to the rule's
// trigger and who have been quiet for at least days_after days.
func collectLeadReactivation(ctx context.Context, store Store, trainer models.Trainer, rule models.AutomationRule, now time.Time) ([]candidate, error) {
	leads, err := store.ContactableRecipients(ctx, trainer.ID, models.KindLead)
	if err != nil {
		return nil, err
	}

	quietDays := rule.DaysAfterOr(defaultReactivationDays)
	var out []candidate
	for _, r := range leads {
		if models.TemperatureTrigger(r.Temperature(now)) != rule.TriggerType {
			continue
		}
		last := r.CreatedAt
		if r.LastContactedAt != nil {
			last = *r.LastContactedAt
		}
		if utils.DaysBetween(last.In(now.Location()), now) < quietDays {
			continue
		}
		out = append(out, candidate{recipient: r, vars: recipientVars(trainer, r), period: models.DayPeriod(now)})
	}
	return out, nil
}
