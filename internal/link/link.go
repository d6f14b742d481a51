package link

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	defaultReadLimit   = 64 * 1024
	defaultSendBuffer  = 16
	defaultDialTimeout = 5 * time.Second
)

var (
	ErrNotOpen        = errors.New("link not open")
	ErrSendBufferFull = errors.New("link send buffer full")
)

type State string

const (
	StateIdle       State = "idle"
	StateConnecting State = "connecting"
	StateOpen       State = "open"
	StateClosed     State = "closed"
)

// Link is a persistent websocket connection to the platform. It is dialed
// once; after it closes it stays closed.
type Link struct {
	name        string
	url         string
	readLimit   int64
	sendBuffer  int
	dialTimeout time.Duration
	logger      *zap.Logger

	onOpen    func()
	onMessage func([]byte)
	onClose   func(error)

	mu    sync.RWMutex
	state State
	conn  *websocket.Conn

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup

	// closed once onOpen has returned; onClose waits for it
	opened chan struct{}
}

type Option func(*Link)

// WithReadLimit caps the size of one inbound message.
func WithReadLimit(n int64) Option {
	return func(l *Link) {
		if n > 0 {
			l.readLimit = n
		}
	}
}

// WithSendBuffer sets how many outbound messages may queue before Send drops.
func WithSendBuffer(n int) Option {
	return func(l *Link) {
		if n > 0 {
			l.sendBuffer = n
		}
	}
}

func WithDialTimeout(d time.Duration) Option {
	return func(l *Link) {
		if d > 0 {
			l.dialTimeout = d
		}
	}
}

// WithOnOpen is called once after the connection is established.
func WithOnOpen(fn func()) Option {
	return func(l *Link) { l.onOpen = fn }
}

// WithOnMessage is called on the read goroutine for every inbound text message.
func WithOnMessage(fn func([]byte)) Option {
	return func(l *Link) { l.onMessage = fn }
}

// WithOnClose is called once when an open link closes, for any reason.
func WithOnClose(fn func(error)) Option {
	return func(l *Link) { l.onClose = fn }
}

func New(name, url string, logger *zap.Logger, opts ...Option) *Link {
	l := &Link{
		name:        name,
		url:         url,
		readLimit:   defaultReadLimit,
		sendBuffer:  defaultSendBuffer,
		dialTimeout: defaultDialTimeout,
		logger:      logger.With(zap.String("link", name)),
		state:       StateIdle,
		done:        make(chan struct{}),
		opened:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.send = make(chan []byte, l.sendBuffer)
	return l
}

// Connect dials the remote end and starts the pumps. A failed dial leaves
// the link closed.
func (l *Link) Connect(ctx context.Context) error {
	l.mu.Lock()
	if l.state != StateIdle {
		l.mu.Unlock()
		return fmt.Errorf("link %s already used (state: %s)", l.name, l.state)
	}
	l.state = StateConnecting
	l.mu.Unlock()

	dialer := websocket.Dialer{HandshakeTimeout: l.dialTimeout}
	conn, _, err := dialer.DialContext(ctx, l.url, nil)
	if err != nil {
		l.mu.Lock()
		l.state = StateClosed
		l.mu.Unlock()
		l.closeOnce.Do(func() { close(l.done) })
		return fmt.Errorf("dial %s failed: %w", l.url, err)
	}

	conn.SetReadLimit(l.readLimit)

	l.mu.Lock()
	if l.state != StateConnecting {
		// closed while dialing
		l.mu.Unlock()
		conn.Close()
		return ErrNotOpen
	}
	l.conn = conn
	l.state = StateOpen
	l.wg.Add(2)
	l.mu.Unlock()

	l.logger.Info("Link connected", zap.String("url", l.url))

	if l.onOpen != nil {
		l.onOpen()
	}
	close(l.opened)

	// pumps exit at once if the link was closed during onOpen
	go l.writePump()
	go l.readPump()

	return nil
}

// Send queues one text message. It never blocks.
func (l *Link) Send(data []byte) error {
	l.mu.RLock()
	open := l.state == StateOpen
	l.mu.RUnlock()

	if !open {
		return ErrNotOpen
	}

	select {
	case l.send <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

func (l *Link) IsOpen() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state == StateOpen
}

func (l *Link) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

func (l *Link) Name() string {
	return l.name
}

// Close sends a close frame and tears the link down.
func (l *Link) Close() error {
	l.mu.RLock()
	conn := l.conn
	open := l.state == StateOpen
	l.mu.RUnlock()

	if open {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	}
	l.shutdown(nil)
	l.wg.Wait()
	return nil
}

// Done is closed once the link is closed.
func (l *Link) Done() <-chan struct{} {
	return l.done
}

func (l *Link) shutdown(cause error) {
	l.closeOnce.Do(func() {
		l.mu.Lock()
		wasOpen := l.state == StateOpen
		l.state = StateClosed
		conn := l.conn
		l.mu.Unlock()

		close(l.done)
		if conn != nil {
			conn.Close()
		}

		if !wasOpen {
			return
		}
		l.logger.Info("Link closed", zap.Error(cause))
		<-l.opened
		if l.onClose != nil {
			l.onClose(cause)
		}
	})
}

func (l *Link) readPump() {
	defer l.wg.Done()

	l.conn.SetReadDeadline(time.Now().Add(pongWait))
	l.conn.SetPongHandler(func(string) error {
		l.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		msgType, data, err := l.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway) {
				l.logger.Warn("Link read error", zap.Error(err))
			}
			l.shutdown(err)
			return
		}
		l.conn.SetReadDeadline(time.Now().Add(pongWait))

		if msgType != websocket.TextMessage {
			continue
		}
		if l.onMessage != nil {
			l.onMessage(data)
		}
	}
}

func (l *Link) writePump() {
	defer l.wg.Done()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-l.done:
			return

		case message := <-l.send:
			l.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := l.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				l.shutdown(err)
				return
			}

		case <-ticker.C:
			l.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := l.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				l.shutdown(err)
				return
			}
		}
	}
}
