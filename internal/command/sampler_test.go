package command

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/KevinKickass/RoverLink/internal/input"
	"github.com/KevinKickass/RoverLink/internal/stick"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var errClosed = errors.New("closed")

type recordingSink struct {
	open bool
	sent [][]byte
}

func (r *recordingSink) Send(data []byte) error {
	if !r.open {
		return errClosed
	}
	r.sent = append(r.sent, data)
	return nil
}

func (r *recordingSink) last(t *testing.T) map[string]any {
	t.Helper()
	require.NotEmpty(t, r.sent)
	var out map[string]any
	require.NoError(t, json.Unmarshal(r.sent[len(r.sent)-1], &out))
	return out
}

func newTestSampler(open bool) (*Sampler, *input.Store, *stick.Tracker, *recordingSink) {
	store := input.NewStore()
	tracker := stick.NewTracker(stick.DefaultMaxOffset)
	sink := &recordingSink{open: open}
	return NewSampler(store, tracker, sink, DefaultInterval, zap.NewNop()), store, tracker, sink
}

func TestDriveLeftScenario(t *testing.T) {
	s, store, _, _ := newTestSampler(true)

	store.Press(input.DriveLeft)
	snap := s.Tick()
	assert.Equal(t, 1, snap.DriveLeft)
	assert.Equal(t, 0, snap.DriveRight)

	store.Release(input.DriveLeft)
	snap = s.Tick()
	assert.Equal(t, 0, snap.DriveLeft)
}

func TestCaptureIsSentOnce(t *testing.T) {
	s, store, _, sink := newTestSampler(true)

	store.Release(input.TakePicture)
	first := s.Tick()
	second := s.Tick()

	assert.Equal(t, 1, first.TakePicture)
	assert.Equal(t, 0, second.TakePicture)
	require.Len(t, sink.sent, 2)
}

func TestOneShotsClearedWhenLinkClosed(t *testing.T) {
	s, store, _, sink := newTestSampler(false)

	store.Release(input.TakePicture)
	store.Release(input.NextPicture)
	s.Tick()

	assert.Empty(t, sink.sent)
	assert.Equal(t, 0, store.Value(input.TakePicture))
	assert.Equal(t, 0, store.Value(input.NextPicture))
	assert.Equal(t, Stats{Ticks: 1, Sent: 0, Dropped: 1}, s.Stats())
}

func TestOppositeCameraPressesCancel(t *testing.T) {
	s, store, _, _ := newTestSampler(true)

	store.Press(input.CamLeft)
	store.Press(input.CamRight)
	store.Press(input.CamUp)
	snap := s.Tick()

	assert.Equal(t, 0, snap.CamTurning.X)
	assert.Equal(t, 1, snap.CamTurning.Y)

	store.Release(input.CamRight)
	store.Release(input.CamUp)
	store.Press(input.CamDown)
	snap = s.Tick()

	assert.Equal(t, -1, snap.CamTurning.X)
	assert.Equal(t, -1, snap.CamTurning.Y)
}

func TestPictureNavigation(t *testing.T) {
	s, store, _, _ := newTestSampler(true)

	store.Release(input.PreviousPicture)
	assert.Equal(t, -1, s.Tick().ChangePicture)

	store.Release(input.NextPicture)
	assert.Equal(t, 1, s.Tick().ChangePicture)

	store.Release(input.PreviousPicture)
	store.Release(input.NextPicture)
	assert.Equal(t, 0, s.Tick().ChangePicture)

	assert.Equal(t, 0, s.Tick().ChangePicture)
}

func TestStickIsInvertedAndClamped(t *testing.T) {
	s, _, tracker, sink := newTestSampler(true)

	tracker.Begin(100, 100)
	tracker.Move(250, 70)
	snap := s.Tick()

	assert.Equal(t, Joystick{X: 100, Y: 30}, snap.Joystick)

	wire := sink.last(t)
	joystick := wire["joystick"].(map[string]any)
	assert.Equal(t, 100.0, joystick["x"])
	assert.Equal(t, 30.0, joystick["y"])
}

func TestWireShape(t *testing.T) {
	s, store, _, sink := newTestSampler(true)
	store.Press(input.DriveRight)
	s.Tick()

	assert.JSONEq(t,
		`{"var1":0,"var2":1,"joystick":{"x":0,"y":0},"camTurning":{"x":0,"y":0},"var4":0,"var5":0}`,
		string(sink.sent[0]))
}

func TestIdleStickEncodesPositiveZero(t *testing.T) {
	data, err := Encode(Build(input.NewStore(), stick.Offset{}))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "-0")
}

func TestRepeatedSnapshotsDoNotAccumulate(t *testing.T) {
	s, store, tracker, sink := newTestSampler(true)
	store.Press(input.DriveLeft)
	store.Press(input.CamUp)
	tracker.Begin(0, 0)
	tracker.Move(10, 20)

	a := s.Tick()
	b := s.Tick()

	assert.Equal(t, a, b)
	require.Len(t, sink.sent, 2)
	assert.Equal(t, sink.sent[0], sink.sent[1])
}

func TestStartStopAreIdempotent(t *testing.T) {
	s, _, _, _ := newTestSampler(true)

	assert.Nil(t, s.C())
	assert.False(t, s.IsRunning())

	s.Start()
	c := s.C()
	s.Start()
	assert.True(t, s.IsRunning())
	assert.Equal(t, c, s.C())

	s.Stop()
	s.Stop()
	assert.False(t, s.IsRunning())
	assert.Nil(t, s.C())
}
