package status_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcarvalho-pb/payment_request-go/internal/domain/currency"
	"github.com/rcarvalho-pb/payment_request-go/internal/domain/order"
	"github.com/rcarvalho-pb/payment_request-go/internal/infra/logging"
	"github.com/rcarvalho-pb/payment_request-go/internal/infrastructure/orders"
	"github.com/rcarvalho-pb/payment_request-go/internal/infrastructure/status"
)

type pushServer struct {
	srv      *httptest.Server
	upgrader websocket.Upgrader

	mu       sync.Mutex
	paths    []string
	devices  []string
	conns    chan *websocket.Conn
	accepted atomic.Int32
}

func newPushServer(t *testing.T) *pushServer {
	t.Helper()
	p := &pushServer{conns: make(chan *websocket.Conn, 8)}
	p.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := p.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		p.mu.Lock()
		p.paths = append(p.paths, r.URL.Path)
		p.devices = append(p.devices, r.Header.Get(orders.DeviceIDHeader))
		p.mu.Unlock()
		p.accepted.Add(1)
		p.conns <- conn
	}))
	t.Cleanup(p.srv.Close)
	return p
}

func (p *pushServer) baseURL() string {
	return "ws" + strings.TrimPrefix(p.srv.URL, "http") + "/ws/merchant/"
}

func (p *pushServer) next(t *testing.T) *websocket.Conn {
	t.Helper()
	select {
	case c := <-p.conns:
		t.Cleanup(func() { _ = c.Close() })
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("no status connection accepted")
		return nil
	}
}

func newSubscriber(base string) *status.Subscriber {
	return &status.Subscriber{
		BaseURL:  base,
		DeviceID: "device-1",
		Logger:   logging.Nop{},
	}
}

func receive(t *testing.T, ch <-chan order.Completion) (order.Completion, bool) {
	t.Helper()
	select {
	case c, ok := <-ch:
		return c, ok
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting on completion channel")
		return order.Completion{}, false
	}
}

func TestSubscriber_Open_ShouldAddressConnectionByIdentifier(t *testing.T) {
	push := newPushServer(t)

	sub, err := newSubscriber(push.baseURL()).Open(context.Background(), "abc123")
	require.NoError(t, err)
	defer sub.Close()
	push.next(t)

	push.mu.Lock()
	defer push.mu.Unlock()
	assert.Equal(t, []string{"/ws/merchant/abc123"}, push.paths)
	assert.Equal(t, []string{"device-1"}, push.devices)
}

func TestSubscriber_ShouldDeliverCompletionOnceAndClose(t *testing.T) {
	push := newPushServer(t)
	sub, err := newSubscriber(push.baseURL()).Open(context.Background(), "abc123")
	require.NoError(t, err)
	conn := push.next(t)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"status":"PE"}`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`garbage`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"status":"completed","fiat_amount":"12.50","fiat":"EUR"}`)))
	_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"status":"CO","fiat_amount":"99.00","fiat":"USD"}`))

	comp, ok := receive(t, sub.Completed())
	require.True(t, ok)
	assert.Equal(t, order.Completion{Amount: "12.50", Currency: currency.EUR}, comp)

	_, ok = receive(t, sub.Completed())
	assert.False(t, ok, "channel must close after the single completion")

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "client should close the connection, got %v", err)

	assert.NoError(t, sub.Close())
}

func TestSubscriber_CloseBeforeCompletion_ShouldNotDeliver(t *testing.T) {
	push := newPushServer(t)
	sub, err := newSubscriber(push.baseURL()).Open(context.Background(), "abc123")
	require.NoError(t, err)
	conn := push.next(t)

	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())
	_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"status":"CO","fiat_amount":"1.00","fiat":"EUR"}`))

	_, ok := receive(t, sub.Completed())
	assert.False(t, ok)
}

func TestSubscriber_DroppedConnection_IsNotRetriedByDefault(t *testing.T) {
	push := newPushServer(t)
	sub, err := newSubscriber(push.baseURL()).Open(context.Background(), "abc123")
	require.NoError(t, err)
	defer sub.Close()

	_ = push.next(t).Close()

	_, ok := receive(t, sub.Completed())
	assert.False(t, ok)
	assert.EqualValues(t, 1, push.accepted.Load())
}

func TestSubscriber_Backoff_ShouldReconnectAndStillComplete(t *testing.T) {
	push := newPushServer(t)
	s := newSubscriber(push.baseURL())
	s.Backoff = status.Backoff{MaxRetry: 3, BaseDelay: 10 * time.Millisecond, MaxDelay: 20 * time.Millisecond}

	sub, err := s.Open(context.Background(), "abc123")
	require.NoError(t, err)
	defer sub.Close()

	_ = push.next(t).Close()
	conn := push.next(t)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"status":"CO","fiat_amount":"5.00","fiat":"GBP"}`)))

	comp, ok := receive(t, sub.Completed())
	require.True(t, ok)
	assert.Equal(t, order.Completion{Amount: "5.00", Currency: currency.GBP}, comp)
	assert.EqualValues(t, 2, push.accepted.Load())
}

func TestSubscriber_Open_Errors(t *testing.T) {
	_, err := newSubscriber("ws://127.0.0.1:1/ws/merchant/").Open(context.Background(), "")
	assert.ErrorIs(t, err, status.ErrEmptyIdentifier)

	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	_, err = newSubscriber("ws"+strings.TrimPrefix(srv.URL, "http")).Open(context.Background(), "abc123")
	assert.Error(t, err)
}

func TestSubscriber_Endpoint_EscapesIdentifier(t *testing.T) {
	s := newSubscriber("wss://payments.example.com/ws/merchant")

	assert.Equal(t, "wss://payments.example.com/ws/merchant/a%2Fb", s.Endpoint("a/b"))
}
