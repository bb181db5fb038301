package sandbox

import (
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/rcarvalho-pb/payment_request-go/internal/domain/currency"
	"github.com/rcarvalho-pb/payment_request-go/internal/domain/order"
	"github.com/rcarvalho-pb/payment_request-go/internal/infra/logging"
	"github.com/rcarvalho-pb/payment_request-go/internal/infrastructure/orders"
)

const maxForm = 1 << 20

// Handler serves a local stand-in for the payment backend.
type Handler struct {
	Store     *Store
	Hub       *Hub
	Catalog   *currency.Catalog
	Logger    logging.Logger
	PublicURL string
	// CompletionStatus is the sentinel pushed when an order is paid.
	CompletionStatus string

	upgrader websocket.Upgrader
}

type createResponse struct {
	Identifier string `json:"identifier"`
	WebURL     string `json:"web_url"`
}

type errorResponse struct {
	Message string `json:"message"`
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	deviceID := r.Header.Get(orders.DeviceIDHeader)
	if deviceID == "" {
		writeError(w, http.StatusBadRequest, "Missing device identifier")
		return
	}

	if err := r.ParseMultipartForm(maxForm); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid form")
		return
	}

	amount, err := order.NormalizeAmount(r.FormValue("expected_output_amount"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount")
		return
	}

	code := currency.Code(r.FormValue("fiat"))
	if !h.catalog().Contains(code) {
		writeError(w, http.StatusBadRequest, "Unsupported currency")
		return
	}

	notes := r.FormValue("notes")
	if utf8.RuneCountInString(notes) > order.MaxNotesLength {
		writeError(w, http.StatusBadRequest, "Notes too long")
		return
	}

	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	o := Order{
		Identifier: id,
		DeviceID:   deviceID,
		Amount:     amount,
		Currency:   code,
		Notes:      notes,
		WebURL:     strings.TrimRight(h.PublicURL, "/") + "/pay/" + id,
	}
	h.Store.Add(o)

	h.Logger.Info("sandbox order created", map[string]any{
		"order-id": id,
		"device":   deviceID,
		"amount":   amount,
		"currency": code,
	})

	writeJSON(w, http.StatusCreated, createResponse{Identifier: o.Identifier, WebURL: o.WebURL})
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.Store.Get(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusNotFound, "Order not found")
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// Pay marks the order paid and pushes the completion to its merchants.
func (h *Handler) Pay(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	o, err := h.Store.MarkPaid(id)
	switch {
	case errors.Is(err, ErrUnknownOrder):
		writeError(w, http.StatusNotFound, "Order not found")
		return
	case errors.Is(err, ErrAlreadyPaid):
		writeError(w, http.StatusConflict, "Order already paid")
		return
	}

	sent := h.Hub.Push(id, h.completion(o))
	h.Logger.Info("sandbox order paid", map[string]any{
		"order-id":  id,
		"listeners": sent,
	})

	w.WriteHeader(http.StatusAccepted)
}

// StatusSocket streams status messages for one order. A merchant connecting
// after payment gets the completion straight away.
func (h *Handler) StatusSocket(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if _, err := h.Store.Get(id); err != nil {
		writeError(w, http.StatusNotFound, "Order not found")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Logger.Error("status socket upgrade failed", map[string]any{
			"order-id": id,
			"error":    err.Error(),
		})
		return
	}
	defer conn.Close()

	// The paid check runs after registration, so a payment landing in
	// between is either pushed to this socket or caught up here.
	err = h.Hub.Attach(id, conn, func() (StatusMessage, bool) {
		o, err := h.Store.Get(id)
		if err != nil || !o.Paid {
			return StatusMessage{}, false
		}
		return h.completion(o), true
	})
	defer h.Hub.Unregister(id, conn)
	if err != nil {
		return
	}

	h.Logger.Info("merchant subscribed", map[string]any{
		"order-id": id,
		"device":   r.Header.Get(orders.DeviceIDHeader),
	})

	// Merchants never send anything; reading only detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

var payPage = template.Must(template.New("pay").Parse(`<!doctype html>
<html>
<head><meta charset="utf-8"><title>Payment request</title></head>
<body>
<h1>{{.Amount}} {{.Currency}}</h1>
{{if .Notes}}<p>{{.Notes}}</p>{{end}}
{{if .Paid}}<p>Paid. Thank you!</p>{{else}}
<form method="post" action="/api/v1/orders/{{.Identifier}}/pay">
<button type="submit">Pay</button>
</form>{{end}}
</body>
</html>
`))

// PayerPage is the page behind an order's web URL.
func (h *Handler) PayerPage(w http.ResponseWriter, r *http.Request) {
	o, err := h.Store.Get(mux.Vars(r)["id"])
	if err != nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := payPage.Execute(w, o); err != nil {
		h.Logger.Error("payer page render failed", map[string]any{
			"order-id": o.Identifier,
			"error":    err.Error(),
		})
	}
}

func (h *Handler) completion(o Order) StatusMessage {
	status := h.CompletionStatus
	if status == "" {
		status = "CO"
	}
	return StatusMessage{Status: status, FiatAmount: o.Amount, Fiat: string(o.Currency)}
}

func (h *Handler) catalog() *currency.Catalog {
	if h.Catalog == nil {
		return currency.Default
	}
	return h.Catalog
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Message: message})
}
