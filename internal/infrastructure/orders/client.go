package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/rcarvalho-pb/payment_request-go/internal/domain/currency"
	"github.com/rcarvalho-pb/payment_request-go/internal/domain/order"
	"github.com/rcarvalho-pb/payment_request-go/internal/infra/logging"
)

const DeviceIDHeader = "X-Device-Id"

const (
	fieldAmount   = "expected_output_amount"
	fieldCurrency = "fiat"
	fieldNotes    = "notes"
)

// maxBody caps how much of a response is read.
const maxBody = 1 << 20

type Client struct {
	OrdersURL  string
	DeviceID   string
	HTTPClient *http.Client
	Logger     logging.Logger
}

type createResponse struct {
	Identifier string `json:"identifier"`
	WebURL     string `json:"web_url"`
}

type errorResponse struct {
	Message string `json:"message"`
}

// Submit validates the input and creates the order. Invalid input returns a
// *order.ValidationError without touching the network.
func (c *Client) Submit(ctx context.Context, amount string, code currency.Code, notes string) (order.Created, error) {
	draft, err := order.NewDraft(amount, code, notes)
	if err != nil {
		return order.Created{}, err
	}
	return c.Create(ctx, draft)
}

func (c *Client) Create(ctx context.Context, draft order.Draft) (order.Created, error) {
	body, contentType, err := encodeDraft(draft)
	if err != nil {
		return order.Created{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.OrdersURL, body)
	if err != nil {
		return order.Created{}, &order.TransportError{Err: err}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set(DeviceIDHeader, c.DeviceID)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return order.Created{}, &order.TransportError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return order.Created{}, &order.TransportError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return order.Created{}, c.decodeFailure(resp.StatusCode, data)
	}

	var created createResponse
	if err := json.Unmarshal(data, &created); err != nil {
		c.logProtocol("undecodable order response", resp.StatusCode, data)
		return order.Created{}, &order.ProtocolError{Reason: "undecodable order response", Err: err}
	}
	if created.Identifier == "" || created.WebURL == "" {
		c.logProtocol("order response without identifier or web_url", resp.StatusCode, data)
		return order.Created{}, &order.ProtocolError{Reason: "order response without identifier or web_url"}
	}

	c.Logger.Info("order created", map[string]any{
		"order-id": created.Identifier,
		"amount":   draft.Amount,
		"currency": draft.Currency,
	})

	return order.Created{Identifier: created.Identifier, WebURL: created.WebURL}, nil
}

func (c *Client) decodeFailure(status int, data []byte) error {
	var failure errorResponse
	if err := json.Unmarshal(data, &failure); err != nil || failure.Message == "" {
		c.logProtocol("rejection without message", status, data)
		return &order.ProtocolError{Reason: "rejection without message: " + http.StatusText(status), Err: err}
	}

	c.Logger.Error("order rejected", map[string]any{
		"status":  status,
		"message": failure.Message,
	})
	return &order.ServerError{StatusCode: status, Message: failure.Message}
}

func (c *Client) logProtocol(reason string, status int, data []byte) {
	c.Logger.Error(reason, map[string]any{
		"status": status,
		"body":   truncate(string(data), 256),
	})
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func encodeDraft(draft order.Draft) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := [][2]string{
		{fieldAmount, draft.Amount},
		{fieldCurrency, string(draft.Currency)},
		{fieldNotes, draft.Notes},
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}

	return &buf, w.FormDataContentType(), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
