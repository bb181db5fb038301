package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/rcarvalho-pb/payment_request-go/internal/application/lifecycle"
	"github.com/rcarvalho-pb/payment_request-go/internal/domain/currency"
	"github.com/rcarvalho-pb/payment_request-go/internal/domain/event"
	"github.com/rcarvalho-pb/payment_request-go/internal/domain/order"
	"github.com/rcarvalho-pb/payment_request-go/internal/infra/logging"
)

var ErrQuit = errors.New("quit")

type Lifecycle interface {
	Submit(ctx context.Context, amount string, code currency.Code, notes string) error
	Abandon(ctx context.Context) error
	StartNew(ctx context.Context) error
	Snapshot(ctx context.Context) (lifecycle.Snapshot, error)
}

// App is a line-based merchant front end. Views change only on lifecycle
// events; commands never navigate on their own.
type App struct {
	Lifecycle Lifecycle
	Catalog   *currency.Catalog
	Out       io.Writer
	Logger    logging.Logger

	events chan event.Event
	view   View
	// order shown by the share and QR views
	current *order.PaymentOrder
}

func NewApp(lc Lifecycle, catalog *currency.Catalog, out io.Writer, logger logging.Logger) *App {
	if catalog == nil {
		catalog = currency.Default
	}
	if logger == nil {
		logger = logging.Nop{}
	}
	return &App{
		Lifecycle: lc,
		Catalog:   catalog,
		Out:       out,
		Logger:    logger,
		events:    make(chan event.Event, 16),
		view:      ViewCreate,
	}
}

// OnEvent is the event bus handler. It runs on the controller goroutine and
// only queues the event.
func (a *App) OnEvent(evt event.Event) error {
	select {
	case a.events <- evt:
		return nil
	default:
		return fmt.Errorf("terminal: event queue full, dropped %s", evt.Type)
	}
}

func (a *App) View() View {
	return a.view
}

// Run renders the create view and serves commands from in until quit, EOF
// or ctx is done.
func (a *App) Run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	a.render(ctx, "")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt := <-a.events:
			a.Apply(ctx, evt)
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if err := a.Execute(ctx, line); err != nil {
				if errors.Is(err, ErrQuit) {
					return nil
				}
				fmt.Fprintf(a.Out, "! %s\n", err)
			}
		}
	}
}

// Apply moves between views for a lifecycle event.
func (a *App) Apply(ctx context.Context, evt event.Event) {
	switch p := evt.Payload.(type) {
	case event.OrderCreatedPayload:
		snap, err := a.Lifecycle.Snapshot(ctx)
		if err != nil || snap.Order == nil || snap.Order.Identifier != p.Identifier {
			a.current = &order.PaymentOrder{
				Identifier: p.Identifier,
				WebURL:     p.WebURL,
				Amount:     p.Amount,
				Currency:   p.Currency,
			}
		} else {
			a.current = snap.Order
		}
		a.view = ViewShare
		a.render(ctx, "")
	case event.SubmissionFailedPayload:
		a.view = ViewCreate
		a.render(ctx, p.Message)
	case event.PaymentCompletedPayload:
		if a.view == ViewCompleted {
			return
		}
		a.view = ViewCompleted
		renderCompleted(a.Out, a.Catalog, order.Completion{Amount: p.Amount, Currency: p.Currency})
	case event.OrderDiscardedPayload:
		a.current = nil
		a.view = ViewCreate
		a.render(ctx, "")
	default:
		a.Logger.Error("unexpected navigation event", map[string]any{
			"type": evt.Type,
		})
	}
}

// Execute runs one command line in the current view.
func (a *App) Execute(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "quit", "exit":
		return ErrQuit
	case "currencies":
		for _, c := range a.Catalog.Search(strings.Join(args, " ")) {
			fmt.Fprintf(a.Out, "%s  %s  %s\n", c.Code, c.Symbol, c.Name)
		}
		return nil
	case "countries":
		for _, c := range SearchCountries(strings.Join(args, " ")) {
			fmt.Fprintf(a.Out, "%s  %s\n", c.Code, c.Name)
		}
		return nil
	}

	switch a.view {
	case ViewCreate:
		return a.executeCreate(ctx, cmd, args, line)
	case ViewShare, ViewQR:
		return a.executeShare(ctx, cmd, args)
	case ViewCompleted:
		if cmd == "new" {
			return a.Lifecycle.StartNew(ctx)
		}
	}
	return fmt.Errorf("unknown command %q", cmd)
}

func (a *App) executeCreate(ctx context.Context, cmd string, args []string, line string) error {
	if cmd != "new" {
		return fmt.Errorf("unknown command %q", cmd)
	}
	if len(args) < 2 {
		return errors.New("usage: new <amount> <currency> [notes]")
	}

	// notes keep their inner spacing
	notes := strings.TrimSpace(afterFields(line, 3))

	err := a.Lifecycle.Submit(ctx, args[0], currency.Code(strings.ToUpper(args[1])), notes)
	if err != nil {
		return errors.New(submitMessage(err))
	}
	fmt.Fprintln(a.Out, "creating payment...")
	return nil
}

func (a *App) executeShare(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "qr":
		if a.current == nil {
			return errors.New("no live order")
		}
		a.view = ViewQR
		return renderQR(a.Out, a.current)
	case "back":
		if a.view == ViewQR {
			a.view = ViewShare
			a.render(ctx, "")
			return nil
		}
		return a.Lifecycle.Abandon(ctx)
	case "new":
		return a.Lifecycle.StartNew(ctx)
	case "whatsapp":
		if len(args) < 2 || a.current == nil {
			return errors.New("usage: whatsapp <prefix> <phone>")
		}
		link, err := WhatsAppLink(args[0], strings.Join(args[1:], ""), a.current.WebURL)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.Out, link)
		return nil
	case "email":
		if len(args) != 1 || a.current == nil {
			return errors.New("usage: email <address>")
		}
		fmt.Fprintln(a.Out, MailtoLink(args[0], a.current.WebURL))
		return nil
	}
	return fmt.Errorf("unknown command %q", cmd)
}

func (a *App) render(ctx context.Context, message string) {
	switch a.view {
	case ViewCreate:
		renderCreate(a.Out, a.Catalog, message)
	case ViewShare:
		if a.current != nil {
			renderShare(a.Out, a.Catalog, a.current)
		}
	}
}

// afterFields returns what follows the first n whitespace-separated fields.
func afterFields(line string, n int) string {
	rest := line
	for i := 0; i < n; i++ {
		rest = strings.TrimLeftFunc(rest, unicode.IsSpace)
		end := strings.IndexFunc(rest, unicode.IsSpace)
		if end < 0 {
			return ""
		}
		rest = rest[end:]
	}
	return rest
}

func submitMessage(err error) string {
	switch {
	case errors.Is(err, order.ErrSubmissionInFlight):
		return "a payment is already being created"
	case errors.Is(err, order.ErrOrderLive):
		return "a payment request is already live"
	default:
		return order.UserMessage(err)
	}
}
