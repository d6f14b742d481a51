package link

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
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// platform is a fake remote end: it records inbound text messages and can
// push messages or drop the connection.
type platform struct {
	server   *httptest.Server
	received chan string
	conns    chan *websocket.Conn
}

func newPlatform(t *testing.T) *platform {
	t.Helper()
	p := &platform{
		received: make(chan string, 64),
		conns:    make(chan *websocket.Conn, 1),
	}
	p.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		p.conns <- conn
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			p.received <- string(data)
		}
	}))
	t.Cleanup(p.server.Close)
	return p
}

func (p *platform) url() string {
	return "ws" + strings.TrimPrefix(p.server.URL, "http")
}

func TestSendBeforeConnect(t *testing.T) {
	l := New("command", "ws://127.0.0.1:1", zap.NewNop())
	assert.ErrorIs(t, l.Send([]byte("x")), ErrNotOpen)
	assert.Equal(t, StateIdle, l.State())
}

func TestDialFailureLeavesLinkClosed(t *testing.T) {
	var closed atomic.Int32
	l := New("command", "ws://127.0.0.1:1", zap.NewNop(),
		WithDialTimeout(200*time.Millisecond),
		WithOnClose(func(error) { closed.Add(1) }))

	err := l.Connect(context.Background())

	require.Error(t, err)
	assert.Equal(t, StateClosed, l.State())
	assert.ErrorIs(t, l.Send([]byte("x")), ErrNotOpen)
	assert.Equal(t, int32(0), closed.Load())
	assert.Error(t, l.Connect(context.Background()))
}

func TestSendReachesPlatform(t *testing.T) {
	p := newPlatform(t)
	opened := make(chan struct{}, 1)
	l := New("command", p.url(), zap.NewNop(), WithOnOpen(func() { opened <- struct{}{} }))

	require.NoError(t, l.Connect(context.Background()))
	defer l.Close()

	select {
	case <-opened:
	default:
		t.Fatal("onOpen not called")
	}
	assert.True(t, l.IsOpen())

	require.NoError(t, l.Send([]byte(`{"var1":1}`)))
	require.NoError(t, l.Send([]byte(`{"var1":0}`)))

	for _, want := range []string{`{"var1":1}`, `{"var1":0}`} {
		select {
		case got := <-p.received:
			assert.Equal(t, want, got)
		case <-time.After(2 * time.Second):
			t.Fatalf("platform did not receive %s", want)
		}
	}
}

func TestInboundMessagesDelivered(t *testing.T) {
	p := newPlatform(t)
	got := make(chan string, 4)
	l := New("media", p.url(), zap.NewNop(), WithOnMessage(func(b []byte) { got <- string(b) }))
	require.NoError(t, l.Connect(context.Background()))
	defer l.Close()

	conn := <-p.conns
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"video"}`)))

	select {
	case msg := <-got:
		assert.Equal(t, `{"type":"video"}`, msg)
	case <-time.After(2 * time.Second):
		t.Fatal("message not delivered")
	}
}

func TestRemoteCloseFiresOnCloseOnce(t *testing.T) {
	p := newPlatform(t)
	var closed atomic.Int32
	l := New("command", p.url(), zap.NewNop(), WithOnClose(func(error) { closed.Add(1) }))
	require.NoError(t, l.Connect(context.Background()))

	conn := <-p.conns
	conn.Close()

	select {
	case <-l.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("link did not close")
	}

	require.NoError(t, l.Close())
	assert.Equal(t, int32(1), closed.Load())
	assert.Equal(t, StateClosed, l.State())
	assert.ErrorIs(t, l.Send([]byte("x")), ErrNotOpen)
}

func TestCloseDuringOnOpenKeepsCallbackOrder(t *testing.T) {
	p := newPlatform(t)

	var (
		mu     sync.Mutex
		events []string
	)
	record := func(ev string) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, ev)
	}

	var l *Link
	closeReturned := make(chan struct{})
	l = New("command", p.url(), zap.NewNop(),
		WithOnOpen(func() {
			go func() {
				l.Close()
				close(closeReturned)
			}()
			// give Close time to run while onOpen is still in progress
			time.Sleep(50 * time.Millisecond)
			record("open")
		}),
		WithOnClose(func(error) { record("close") }))

	require.NoError(t, l.Connect(context.Background()))

	select {
	case <-closeReturned:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"open", "close"}, events)
	assert.Equal(t, StateClosed, l.State())
}

func TestSendBufferFullDrops(t *testing.T) {
	l := New("command", "ws://unused", zap.NewNop(), WithSendBuffer(1))
	// open without pumps so nothing drains the buffer
	l.state = StateOpen

	require.NoError(t, l.Send([]byte("a")))
	assert.ErrorIs(t, l.Send([]byte("b")), ErrSendBufferFull)
}
