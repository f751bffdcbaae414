package services

import (
	"regexp"
	"strings"
)

type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Suggested actions for an inbound payment message.
const (
	ActionAutoConfirm  = "auto_confirm"
	ActionManualReview = "manual_review"
	ActionIgnore       = "ignore"
)

type PaymentIntent struct {
	Confidence Confidence `json:"confidence"`
	Action     string     `json:"action"`
	Matched    string     `json:"matched,omitempty"`
}

var negationPattern = regexp.MustCompile(`n[aã]o\s+(paguei|pago|fiz|consegui|vou)`)

var highConfidencePatterns = []*regexp.Regexp{
	regexp.MustCompile(`j[aá]\s+(paguei|pago|fiz o pix|transferi)`),
	regexp.MustCompile(`pagamento\s+(feito|realizado|efetuado|conclu[ií]do)`),
	regexp.MustCompile(`(segue|enviei|mandei|t[aá] a[ií])\s+(o\s+)?comprovante`),
	regexp.MustCompile(`pix\s+(feito|enviado|realizado|pago)`),
	regexp.MustCompile(`acabei de (pagar|transferir|fazer o pix)`),
}

var mediumConfidencePatterns = []*regexp.Regexp{
	regexp.MustCompile(`comprovante`),
	regexp.MustCompile(`paguei`),
	regexp.MustCompile(`\bpix\b`),
	regexp.MustCompile(`transfer(i|ência|encia)`),
	regexp.MustCompile(`pagamento`),
	regexp.MustCompile(`depositei`),
}

// ClassifyPayment guesses whether an inbound text confirms a payment.
func ClassifyPayment(text string) PaymentIntent {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" || negationPattern.MatchString(t) {
		return PaymentIntent{Confidence: ConfidenceLow, Action: ActionIgnore}
	}
	for _, p := range highConfidencePatterns {
		if m := p.FindString(t); m != "" {
			return PaymentIntent{Confidence: ConfidenceHigh, Action: ActionAutoConfirm, Matched: m}
		}
	}
	for _, p := range mediumConfidencePatterns {
		if m := p.FindString(t); m != "" {
			return PaymentIntent{Confidence: ConfidenceMedium, Action: ActionManualReview, Matched: m}
		}
	}
	return PaymentIntent{Confidence: ConfidenceLow, Action: ActionIgnore}
}
