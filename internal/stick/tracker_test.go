package stick

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdleMoveIsNoop(t *testing.T) {
	tr := NewTracker(DefaultMaxOffset)

	consumed := tr.Move(40, 40)

	assert.False(t, consumed)
	assert.Equal(t, Offset{}, tr.Offset())
	assert.Equal(t, StateIdle, tr.State())
}

func TestDragClampsEachAxis(t *testing.T) {
	tr := NewTracker(DefaultMaxOffset)
	tr.Begin(200, 300)

	require.True(t, tr.Move(350, 270))
	assert.Equal(t, Offset{X: 100, Y: -30}, tr.Offset())

	require.True(t, tr.Move(10, 500))
	assert.Equal(t, Offset{X: -100, Y: 100}, tr.Offset())

	require.True(t, tr.Move(225.5, 290))
	assert.Equal(t, Offset{X: 25.5, Y: -10}, tr.Offset())
}

func TestOffsetStaysInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	tr := NewTracker(DefaultMaxOffset)
	for i := 0; i < 500; i++ {
		switch rng.Intn(4) {
		case 0:
			tr.Begin(rng.Float64()*1000, rng.Float64()*1000)
		case 1:
			tr.End()
			require.Equal(t, Offset{}, tr.Offset())
		default:
			tr.Move(rng.Float64()*2000-500, rng.Float64()*2000-500)
		}
		off := tr.Offset()
		require.GreaterOrEqual(t, off.X, -100.0)
		require.LessOrEqual(t, off.X, 100.0)
		require.GreaterOrEqual(t, off.Y, -100.0)
		require.LessOrEqual(t, off.Y, 100.0)
	}
}

func TestEndResetsAndSmooths(t *testing.T) {
	tr := NewTracker(DefaultMaxOffset)
	tr.Begin(0, 0)
	tr.Move(60, 70)

	tr.End()

	v := tr.View()
	assert.Equal(t, Offset{}, v.Offset)
	assert.Equal(t, StateIdle, v.State)
	assert.True(t, v.Smooth)

	// a new drag starts without the transition
	tr.Begin(5, 5)
	assert.False(t, tr.View().Smooth)
}

func TestResetHasNoTransition(t *testing.T) {
	tr := NewTracker(DefaultMaxOffset)
	tr.Begin(0, 0)
	tr.Move(-30, 10)

	tr.Reset()

	assert.Equal(t, Offset{}, tr.Offset())
	assert.False(t, tr.View().Smooth)
	assert.False(t, tr.Move(10, 10))
}

func TestReadIsPure(t *testing.T) {
	tr := NewTracker(DefaultMaxOffset)
	tr.Begin(0, 0)
	tr.Move(12, 34)

	first := tr.Offset()
	second := tr.Offset()

	assert.Equal(t, first, second)
	assert.Equal(t, StateDragging, tr.State())
}

func TestNonPositiveMaxFallsBackToDefault(t *testing.T) {
	tr := NewTracker(0)
	tr.Begin(0, 0)
	tr.Move(1000, 0)
	assert.Equal(t, DefaultMaxOffset, tr.Offset().X)
}

func TestOversizedMaxIsCapped(t *testing.T) {
	tr := NewTracker(250)
	tr.Begin(0, 0)

	require.True(t, tr.Move(240, -240))
	assert.Equal(t, Offset{X: 100, Y: -100}, tr.Offset())
}
