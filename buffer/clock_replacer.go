package buffer

import (
	"errors"
	"sync"
)

var ErrNoVictim = errors.New("nothing is unpinned")

const (
	// TrackedBit is set while the frame is eviction eligible.
	TrackedBit uint8 = 1 << 7

	// RefBit grants the frame one more full cycle of the clock hand before it can be chosen.
	RefBit uint8 = 1 << 6
)

var _ IReplacer = &ClockReplacer{}

// ClockReplacer approximates lru with a second chance scheme. Each frame carries a tracked
// and a reference bit, and a clock hand cycles over the frame indices clearing reference
// bits until it lands on a tracked frame whose reference bit is already clear.
type ClockReplacer struct {
	frames  []uint8
	hand    int
	tracked int
	lock    sync.Mutex
}

func NewClockReplacer(size int) *ClockReplacer {
	return &ClockReplacer{
		frames: make([]uint8, size),
	}
}

func (c *ClockReplacer) Pin(frameId int) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if frameId < 0 || frameId >= len(c.frames) {
		return
	}

	if c.frames[frameId]&TrackedBit > 0 {
		c.tracked--
	}
	c.frames[frameId] &= ^(TrackedBit | RefBit)
}

func (c *ClockReplacer) Unpin(frameId int) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if frameId < 0 || frameId >= len(c.frames) {
		return
	}

	if c.frames[frameId]&TrackedBit == 0 {
		c.tracked++
	}
	c.frames[frameId] |= TrackedBit | RefBit
}

func (c *ClockReplacer) ChooseVictim() (frameId int, err error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.tracked == 0 {
		return 0, ErrNoVictim
	}

	// every tracked frame loses its reference bit on the first pass, so the scan terminates
	// within two cycles.
	for {
		bits := c.frames[c.hand]
		if bits&TrackedBit > 0 {
			if bits&RefBit > 0 {
				c.frames[c.hand] &= ^RefBit
			} else {
				victim := c.hand
				c.frames[victim] &= ^TrackedBit
				c.tracked--
				c.hand = (c.hand + 1) % len(c.frames)
				return victim, nil
			}
		}

		c.hand = (c.hand + 1) % len(c.frames)
	}
}

func (c *ClockReplacer) Size() int {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.tracked
}
