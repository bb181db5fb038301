package terminal

import (
	"fmt"
	"io"
	"strings"

	"github.com/skip2/go-qrcode"

	"github.com/rcarvalho-pb/payment_request-go/internal/domain/currency"
	"github.com/rcarvalho-pb/payment_request-go/internal/domain/order"
)

type View string

const (
	ViewCreate    View = "create"
	ViewShare     View = "share"
	ViewQR        View = "qr"
	ViewCompleted View = "completed"
)

func renderCreate(w io.Writer, catalog *currency.Catalog, message string) {
	fmt.Fprintln(w, "== Create payment ==")
	codes := make([]string, 0)
	for _, c := range catalog.All() {
		codes = append(codes, string(c.Code))
	}
	fmt.Fprintf(w, "currencies: %s\n", strings.Join(codes, ", "))
	if message != "" {
		fmt.Fprintf(w, "! %s\n", message)
	}
	fmt.Fprintln(w, "commands: new <amount> <currency> [notes], currencies [query], quit")
}

func renderShare(w io.Writer, catalog *currency.Catalog, o *order.PaymentOrder) {
	fmt.Fprintln(w, "== Payment request ==")
	fmt.Fprintf(w, "%s %s\n", o.Amount, catalog.Symbol(o.Currency))
	if o.Notes != "" {
		fmt.Fprintf(w, "%s\n", o.Notes)
	}
	fmt.Fprintf(w, "link: %s\n", o.WebURL)
	fmt.Fprintf(w, "share: %s\n", ShareMessage(o.WebURL))
	fmt.Fprintln(w, "commands: qr, whatsapp <prefix> <phone>, email <address>, countries [query], back, new, quit")
}

func renderQR(w io.Writer, o *order.PaymentOrder) error {
	qr, err := qrcode.New(o.WebURL, qrcode.Medium)
	if err != nil {
		return fmt.Errorf("render qr: %w", err)
	}
	fmt.Fprintln(w, "== Scan to pay ==")
	fmt.Fprint(w, qr.ToSmallString(false))
	fmt.Fprintf(w, "%s %s\n", o.Amount, o.Currency)
	fmt.Fprintln(w, "commands: back, new, quit")
	return nil
}

func renderCompleted(w io.Writer, catalog *currency.Catalog, settled order.Completion) {
	fmt.Fprintln(w, "== Payment received ==")
	fmt.Fprintf(w, "%s %s\n", settled.Amount, catalog.Symbol(settled.Currency))
	fmt.Fprintln(w, "commands: new, quit")
}
