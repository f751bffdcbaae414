package services

import (
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"trainerpro-backend/models"
)

// TemplateVars maps placeholder names (without braces) to rendered values.
type TemplateVars map[string]string

// placeholders lists every supported token; names on one line are aliases.
var placeholders = [][]string{
	{"nome", "name"},
	{"primeiro_nome", "first_name"},
	{"personal", "trainer"},
	{"data", "date"},
	{"horario", "time"},
	{"valor", "amount"},
	{"vencimento", "due_date"},
	{"dias_atraso", "days_overdue"},
	{"descricao", "description"},
	{"link"},
}

var ptBR = message.NewPrinter(language.BrazilianPortuguese)

// RenderTemplate substitutes every known placeholder in one pass. Known
// placeholders without a value become empty strings; unknown ones are left
// untouched.
func RenderTemplate(tmpl string, vars TemplateVars) string {
	pairs := make([]string, 0, 40)
	for _, names := range placeholders {
		value := ""
		for _, name := range names {
			if v, ok := vars[name]; ok {
				value = v
				break
			}
		}
		for _, name := range names {
			pairs = append(pairs, "{"+name+"}", value)
		}
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

func FormatBRL(amount float64) string {
	return "R$ " + ptBR.Sprintf("%.2f", amount)
}

func FormatDate(t time.Time) string {
	return t.Format("02/01/2006")
}

func FormatClock(t time.Time) string {
	return t.Format("15:04")
}

func recipientVars(trainer models.Trainer, r models.Recipient) TemplateVars {
	return TemplateVars{
		"nome":          r.Name,
		"primeiro_nome": r.FirstName(),
		"personal":      trainer.Name,
		"link":          trainer.SignupLink,
	}
}

func sessionVars(trainer models.Trainer, s models.Session, loc *time.Location) TemplateVars {
	vars := recipientVars(trainer, s.Recipient)
	at := s.ScheduledAt.In(loc)
	vars["data"] = FormatDate(at)
	vars["horario"] = FormatClock(at)
	vars["descricao"] = s.Title
	return vars
}

func chargeVars(trainer models.Trainer, c models.Charge, now time.Time) TemplateVars {
	vars := recipientVars(trainer, c.Recipient)
	vars["valor"] = FormatBRL(c.Amount)
	vars["vencimento"] = FormatDate(c.DueDate.In(now.Location()))
	vars["descricao"] = c.Description
	if overdue := c.DaysOverdue(now); overdue > 0 {
		vars["dias_atraso"] = strconv.Itoa(overdue)
	}
	if c.PaymentLink != "" {
		vars["link"] = c.PaymentLink
	}
	return vars
}
