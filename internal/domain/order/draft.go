package order

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/rcarvalho-pb/payment_request-go/internal/domain/currency"
)

const (
	MaxIntegerDigits  = 10
	MaxFractionDigits = 2
	MaxNotesLength    = 140
)

// amountPattern accepts a single "." or "," separator and nothing else:
// no signs, exponents, spaces or grouping separators.
var amountPattern = regexp.MustCompile(`^[0-9]{1,10}(?:[.,][0-9]{1,2})?$`)

// Draft is a validated, normalized order request ready to be sent.
type Draft struct {
	Amount   string
	Currency currency.Code
	Notes    string
}

// NewDraft validates user input against the default catalog.
func NewDraft(amount string, code currency.Code, notes string) (Draft, error) {
	return NewDraftIn(currency.Default, amount, code, notes)
}

func NewDraftIn(catalog *currency.Catalog, amount string, code currency.Code, notes string) (Draft, error) {
	normalized, err := NormalizeAmount(amount)
	if err != nil {
		return Draft{}, err
	}

	if code == "" {
		return Draft{}, &ValidationError{Field: "currency", Reason: "is required"}
	}
	if !catalog.Contains(code) {
		return Draft{}, &ValidationError{Field: "currency", Reason: "is not supported: " + string(code)}
	}

	if utf8.RuneCountInString(notes) > MaxNotesLength {
		return Draft{}, &ValidationError{Field: "notes", Reason: "must be at most 140 characters"}
	}

	return Draft{Amount: normalized, Currency: code, Notes: notes}, nil
}

// NormalizeAmount turns user input such as "12,5" into the canonical
// two-decimal form "12.50".
func NormalizeAmount(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", &ValidationError{Field: "amount", Reason: "is required"}
	}
	if strings.Contains(raw, ".") && strings.Contains(raw, ",") {
		return "", &ValidationError{Field: "amount", Reason: "mixes '.' and ',' separators"}
	}
	if !amountPattern.MatchString(raw) {
		return "", &ValidationError{Field: "amount", Reason: "must have at most 10 integer and 2 fraction digits"}
	}

	d, err := decimal.NewFromString(strings.Replace(raw, ",", ".", 1))
	if err != nil {
		return "", &ValidationError{Field: "amount", Reason: "is not a number"}
	}
	if !d.IsPositive() {
		return "", &ValidationError{Field: "amount", Reason: "must be greater than zero"}
	}

	return d.StringFixed(MaxFractionDigits), nil
}
