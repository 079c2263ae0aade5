package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClockReplacer_Should_Return_Error_When_No_Possible_Victim_Is_Found(t *testing.T) {
	r := NewClockReplacer(32)

	v, err := r.ChooseVictim()
	assert.Zero(t, v)
	assert.ErrorIs(t, err, ErrNoVictim)
}

func TestClockReplacer_Should_Not_Choose_Pinned(t *testing.T) {
	poolSize := 32
	r := NewClockReplacer(poolSize)
	for i := 0; i < poolSize; i++ {
		r.Unpin(i)
	}
	for i := 0; i < poolSize; i++ {
		if i != 13 {
			r.Pin(i)
		}
	}

	v, err := r.ChooseVictim()
	require.NoError(t, err)
	assert.Equal(t, 13, v)

	_, err = r.ChooseVictim()
	assert.ErrorIs(t, err, ErrNoVictim)
}

func TestClockReplacer_Pin_Should_Be_Idempotent(t *testing.T) {
	r := NewClockReplacer(4)
	r.Unpin(0)
	r.Unpin(1)

	r.Pin(0)
	r.Pin(0)
	assert.Equal(t, 1, r.Size())

	v, err := r.ChooseVictim()
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestClockReplacer_Should_Victimize_In_Unpin_Order_When_There_Are_No_Intervening_Pins(t *testing.T) {
	r := NewClockReplacer(8)
	for _, frameId := range []int{0, 1, 2} {
		r.Unpin(frameId)
	}

	// first scan clears every reference bit, so victims come out in hand order
	for _, expected := range []int{0, 1, 2} {
		v, err := r.ChooseVictim()
		require.NoError(t, err)
		assert.Equal(t, expected, v)
	}

	_, err := r.ChooseVictim()
	assert.ErrorIs(t, err, ErrNoVictim)
}

func TestClockReplacer_Should_Give_A_Second_Chance_To_Recently_Unpinned_Frames(t *testing.T) {
	r := NewClockReplacer(4)
	r.Unpin(0)
	r.Unpin(1)

	v, err := r.ChooseVictim()
	require.NoError(t, err)
	require.Equal(t, 0, v)

	// frame 0 comes back with its reference bit set, frame 1 already lost its bit during
	// the previous scan, so frame 1 must go first.
	r.Unpin(0)
	v, err = r.ChooseVictim()
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	v, err = r.ChooseVictim()
	require.NoError(t, err)
	assert.Equal(t, 0, v)
}

func TestClockReplacer_Size_Should_Report_Tracked_Frames(t *testing.T) {
	r := NewClockReplacer(16)
	assert.Equal(t, 0, r.Size())

	for i := 0; i < 10; i++ {
		r.Unpin(i)
	}
	assert.Equal(t, 10, r.Size())

	r.Pin(3)
	r.Pin(4)
	assert.Equal(t, 8, r.Size())

	_, err := r.ChooseVictim()
	require.NoError(t, err)
	assert.Equal(t, 7, r.Size())
}

func TestClockReplacer_Should_Ignore_Out_Of_Range_Frames(t *testing.T) {
	r := NewClockReplacer(4)
	r.Unpin(-1)
	r.Unpin(4)
	r.Pin(-1)
	r.Pin(4)

	assert.Equal(t, 0, r.Size())
	_, err := r.ChooseVictim()
	assert.ErrorIs(t, err, ErrNoVictim)
}
