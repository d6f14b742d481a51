package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/KevinKickass/RoverLink/internal/auth"
	"github.com/KevinKickass/RoverLink/internal/display"
	"github.com/KevinKickass/RoverLink/internal/input"
	"github.com/KevinKickass/RoverLink/internal/layout"
	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingSink struct {
	mu     sync.Mutex
	events []string
}

func (s *recordingSink) add(ev string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *recordingSink) Press(c input.Control) { s.add("press:" + c.String()) }
func (s *recordingSink) Release(c input.Control) { s.add("release:" + c.String()) }
func (s *recordingSink) StickBegin(x, y float64) { s.add("begin") }
func (s *recordingSink) StickMove(x, y float64) { s.add("move") }
func (s *recordingSink) StickEnd() { s.add("end") }
func (s *recordingSink) Cancel() { s.add("cancel") }

func (s *recordingSink) snapshot() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.events...)
}

func startHub(t *testing.T, jwt *auth.JWTHandler) (*Hub, *recordingSink, string) {
	t.Helper()
	sink := &recordingSink{}
	hub := NewHub(zap.NewNop(), jwt, sink, layout.Default())

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWs(hub, w, r)
	}))
	t.Cleanup(func() {
		srv.Close()
		cancel()
		<-hub.done
	})

	return hub, sink, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *gws.Conn {
	t.Helper()
	conn, _, err := gws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestInputIsForwardedWhenAuthDisabled(t *testing.T) {
	hub, sink, url := startHub(t, nil)
	conn := dial(t, url)

	require.Eventually(t, func() bool { return hub.GetClientCount() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteJSON(InputMessage{Type: MessageTypePress, Control: "vasen"}))
	require.NoError(t, conn.WriteJSON(InputMessage{Type: MessageTypePress, Control: "nope"}))
	require.NoError(t, conn.WriteJSON(InputMessage{Type: MessageTypeStickBegin, X: 1, Y: 2}))
	require.NoError(t, conn.WriteJSON(InputMessage{Type: MessageTypeStickEnd}))

	require.Eventually(t, func() bool { return len(sink.snapshot()) == 3 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"press:vasen", "begin", "end"}, sink.snapshot())
}

func TestDisconnectCancelsHeldInput(t *testing.T) {
	hub, sink, url := startHub(t, nil)
	conn := dial(t, url)
	require.Eventually(t, func() bool { return hub.GetClientCount() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteJSON(InputMessage{Type: MessageTypePress, Control: "oikea"}))
	require.Eventually(t, func() bool { return len(sink.snapshot()) == 1 }, time.Second, 10*time.Millisecond)
	conn.Close()

	require.Eventually(t, func() bool { return hub.GetClientCount() == 0 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"press:oikea", "cancel"}, sink.snapshot())
}

func TestFramesAreBroadcast(t *testing.T) {
	hub, _, url := startHub(t, nil)
	video := display.NewTarget(display.KindVideo)
	hub.Watch(video)

	conn := dial(t, url)
	require.Eventually(t, func() bool { return hub.GetClientCount() == 1 }, time.Second, 10*time.Millisecond)

	video.Replace(display.Frame{MIME: "image/jpeg", Data: []byte{0xff, 0xd8}})

	var msg struct {
		Type MessageType `json:"type"`
		Data FrameData   `json:"data"`
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, MessageTypeVideo, msg.Type)
	assert.Equal(t, uint64(1), msg.Data.Seq)
	assert.Equal(t, "data:image/jpeg;base64,/9g=", msg.Data.DataURI)
}

func TestFirstMessageMustAuthenticate(t *testing.T) {
	jwt, err := auth.NewJWTHandler("0123456789abcdef0123456789abcdef", time.Hour)
	require.NoError(t, err)
	hub, sink, url := startHub(t, jwt)

	conn := dial(t, url)
	require.NoError(t, conn.WriteJSON(InputMessage{Type: MessageTypePress, Control: "vasen"}))

	var msg Message
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, MessageTypeAuthFailed, msg.Type)

	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
	assert.Empty(t, sink.snapshot())
	assert.Equal(t, 0, hub.GetClientCount())
}

func TestViewerCannotDrive(t *testing.T) {
	jwt, err := auth.NewJWTHandler("0123456789abcdef0123456789abcdef", time.Hour)
	require.NoError(t, err)
	hub, sink, url := startHub(t, jwt)

	token, err := jwt.GenerateAccessToken("watcher", auth.PermViewer)
	require.NoError(t, err)

	conn := dial(t, url)
	require.NoError(t, conn.WriteJSON(InputMessage{Type: MessageTypeAuth, Token: token}))

	var msg Message
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, MessageTypeAuthSuccess, msg.Type)
	require.Eventually(t, func() bool { return hub.GetClientCount() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteJSON(InputMessage{Type: MessageTypePress, Control: "vasen"}))
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, sink.snapshot())
}
