package status

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rcarvalho-pb/payment_request-go/internal/application/contracts"
	"github.com/rcarvalho-pb/payment_request-go/internal/domain/order"
	"github.com/rcarvalho-pb/payment_request-go/internal/infra/logging"
	"github.com/rcarvalho-pb/payment_request-go/internal/infrastructure/orders"
)

var ErrEmptyIdentifier = errors.New("status: empty order identifier")

const closeWait = time.Second

// Subscriber opens merchant status connections at BaseURL/{identifier}.
type Subscriber struct {
	BaseURL  string
	DeviceID string
	Dialer   *websocket.Dialer
	Backoff  Backoff
	Logger   logging.Logger
}

func (s *Subscriber) Open(ctx context.Context, identifier string) (contracts.Subscription, error) {
	if identifier == "" {
		return nil, ErrEmptyIdentifier
	}

	endpoint := s.Endpoint(identifier)
	conn, err := s.dial(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("status: dial %s: %w", endpoint, err)
	}

	sub := &Subscription{
		identifier: identifier,
		endpoint:   endpoint,
		subscriber: s,
		conn:       conn,
		completed:  make(chan order.Completion, 1),
		done:       make(chan struct{}),
	}
	s.Logger.Info("status connection opened", map[string]any{
		"order-id": identifier,
	})

	go sub.run()
	return sub, nil
}

func (s *Subscriber) Endpoint(identifier string) string {
	return strings.TrimRight(s.BaseURL, "/") + "/" + url.PathEscape(identifier)
}

func (s *Subscriber) dial(ctx context.Context, endpoint string) (*websocket.Conn, error) {
	dialer := s.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	header := http.Header{}
	if s.DeviceID != "" {
		header.Set(orders.DeviceIDHeader, s.DeviceID)
	}

	conn, _, err := dialer.DialContext(ctx, endpoint, header)
	return conn, err
}

// Subscription is one live status connection. It delivers at most one
// completion and closes itself right after.
type Subscription struct {
	identifier string
	endpoint   string
	subscriber *Subscriber

	mu   sync.Mutex
	conn *websocket.Conn

	completed chan order.Completion
	done      chan struct{}
	closeOnce sync.Once
}

func (s *Subscription) Completed() <-chan order.Completion {
	return s.completed
}

func (s *Subscription) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)

		conn := s.current()
		_ = conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(closeWait),
		)
		err = conn.Close()
		if errors.Is(err, net.ErrClosed) {
			err = nil
		}

		s.subscriber.Logger.Info("status connection closed", map[string]any{
			"order-id": s.identifier,
		})
	})
	return err
}

func (s *Subscription) run() {
	defer close(s.completed)

	for {
		comp, err := s.readUntilCompleted(s.current())
		if err == nil {
			s.deliver(comp)
			_ = s.Close()
			return
		}
		if s.closed() {
			return
		}

		s.subscriber.Logger.Error("status connection dropped", map[string]any{
			"order-id": s.identifier,
			"error":    err.Error(),
		})
		if !s.reconnect() {
			return
		}
	}
}

func (s *Subscription) readUntilCompleted(conn *websocket.Conn) (order.Completion, error) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return order.Completion{}, err
		}

		comp, ok, err := decodeMessage(data)
		if err != nil {
			s.subscriber.Logger.Error("undecodable status message", map[string]any{
				"order-id": s.identifier,
				"error":    err.Error(),
			})
			continue
		}
		if !ok {
			s.subscriber.Logger.Info("status message", map[string]any{
				"order-id": s.identifier,
				"payload":  string(data),
			})
			continue
		}

		return comp, nil
	}
}

func (s *Subscription) deliver(comp order.Completion) {
	select {
	case <-s.done:
		return
	default:
	}

	s.subscriber.Logger.Info("payment completed", map[string]any{
		"order-id": s.identifier,
		"amount":   comp.Amount,
		"currency": comp.Currency,
	})
	s.completed <- comp
}

// reconnect redials with backoff. It reports false when attempts run out or
// the subscription was closed meanwhile.
func (s *Subscription) reconnect() bool {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-s.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	for attempt := 1; ; attempt++ {
		delay, ok := s.subscriber.Backoff.Delay(attempt)
		if !ok {
			return false
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return false
		}

		conn, err := s.subscriber.dial(ctx, s.endpoint)
		if err != nil {
			s.subscriber.Logger.Error("status reconnect failed", map[string]any{
				"order-id": s.identifier,
				"attempt":  attempt,
				"error":    err.Error(),
			})
			continue
		}

		s.mu.Lock()
		if s.closed() {
			s.mu.Unlock()
			_ = conn.Close()
			return false
		}
		old := s.conn
		s.conn = conn
		s.mu.Unlock()
		_ = old.Close()

		s.subscriber.Logger.Info("status connection reopened", map[string]any{
			"order-id": s.identifier,
			"attempt":  attempt,
		})
		return true
	}
}

func (s *Subscription) current() *websocket.Conn {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.conn
}

func (s *Subscription) closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}
