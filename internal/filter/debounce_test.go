package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBinaryDebouncer_Threshold(t *testing.T) {
	t.Run("fewer than threshold never flips", func(t *testing.T) {
		d := NewBinaryDebouncer(5)
		for i := 0; i < 4; i++ {
			assert.False(t, d.Signal(true))
			assert.False(t, d.State())
		}
	})

	t.Run("exactly threshold flips", func(t *testing.T) {
		d := NewBinaryDebouncer(5)
		for i := 0; i < 4; i++ {
			d.Signal(true)
		}
		assert.True(t, d.Signal(true))
		assert.True(t, d.State())

		// Holding the value does not report further changes.
		assert.False(t, d.Signal(true))
		assert.True(t, d.State())
	})

	t.Run("interleaved value restarts the run", func(t *testing.T) {
		d := NewBinaryDebouncer(5)
		for _, v := range []bool{true, true, true, true, false, true, true, true, true} {
			d.Signal(v)
			assert.False(t, d.State())
		}
		assert.Equal(t, 4, d.Run())
		d.Signal(true)
		assert.True(t, d.State())
	})

	t.Run("release also needs a full run", func(t *testing.T) {
		d := NewBinaryDebouncer(3)
		for i := 0; i < 3; i++ {
			d.Signal(true)
		}
		assert.True(t, d.State())

		d.Signal(false)
		d.Signal(false)
		assert.True(t, d.State())
		d.Signal(false)
		assert.False(t, d.State())
	})
}

func TestDebouncer_ThresholdOne(t *testing.T) {
	d := NewBinaryDebouncer(1)
	var changes int
	for _, v := range []bool{false, false, true, true, true} {
		if d.Signal(v) {
			changes++
		}
	}
	assert.Equal(t, 1, changes)
	assert.True(t, d.State())
}

func TestDebouncer_NonPositiveThreshold(t *testing.T) {
	d := NewBinaryDebouncer(0)
	assert.Equal(t, 1, d.Threshold(false, true))
	assert.True(t, d.Signal(true))
}

func TestDebouncer_NState(t *testing.T) {
	d := NewDebouncer("idle", 3)
	d.SetTransitionThreshold("idle", "scroll", 1)
	d.SetTransitionThreshold("scroll", "idle", 5)

	assert.Equal(t, 3, d.Threshold("idle", "point"))
	assert.Equal(t, 1, d.Threshold("idle", "scroll"))

	assert.True(t, d.Signal("scroll"))
	assert.Equal(t, "scroll", d.State())

	for i := 0; i < 4; i++ {
		assert.False(t, d.Signal("idle"))
	}
	assert.Equal(t, "scroll", d.State())
	assert.True(t, d.Signal("idle"))
	assert.Equal(t, "idle", d.State())

	// idle->scroll needs a single signal, so the first "scroll" switches.
	assert.False(t, d.Signal("point"))
	assert.True(t, d.Signal("scroll"))

	// Interleaved with the current state, "point" never reaches a run of 3.
	for _, v := range []string{"point", "scroll", "point", "point", "scroll"} {
		assert.False(t, d.Signal(v))
	}
	assert.Equal(t, "scroll", d.State())
}

func TestDebouncer_AtMostOneChangePerSignal(t *testing.T) {
	d := NewDebouncer(0, 2)
	seq := []int{1, 1, 2, 2, 2, 0, 0, 1, 2, 2}
	prev := d.State()
	for _, v := range seq {
		changed := d.Signal(v)
		assert.Equal(t, changed, d.State() != prev)
		prev = d.State()
	}
	assert.Equal(t, 2, d.State())
}

func TestDebouncer_Reset(t *testing.T) {
	d := NewBinaryDebouncer(2)
	d.Signal(true)
	d.Signal(true)
	assert.True(t, d.State())

	d.Reset()
	assert.False(t, d.State())
	assert.Equal(t, 0, d.Run())

	assert.False(t, d.Signal(true))
	assert.True(t, d.Signal(true))
}
