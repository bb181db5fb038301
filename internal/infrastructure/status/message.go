package status

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/rcarvalho-pb/payment_request-go/internal/domain/currency"
	"github.com/rcarvalho-pb/payment_request-go/internal/domain/order"
)

// Both encodings of the paid sentinel are seen in the wild.
const (
	StatusCompletedCode = "CO"
	StatusCompletedWord = "completed"
)

type statusMessage struct {
	Status     string     `json:"status"`
	FiatAmount flexAmount `json:"fiat_amount"`
	Fiat       string     `json:"fiat"`
}

// flexAmount accepts both "12.50" and 12.50.
type flexAmount string

func (a *flexAmount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = flexAmount(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.New("fiat_amount is neither a string nor a number")
	}
	*a = flexAmount(n.String())
	return nil
}

func IsCompleted(status string) bool {
	return status == StatusCompletedCode || status == StatusCompletedWord
}

// decodeMessage reports whether data is a completion event.
func decodeMessage(data []byte) (order.Completion, bool, error) {
	var msg statusMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return order.Completion{}, false, err
	}
	if !IsCompleted(msg.Status) {
		return order.Completion{}, false, nil
	}

	return order.Completion{
		Amount:   string(msg.FiatAmount),
		Currency: currency.Code(msg.Fiat),
	}, true, nil
}
