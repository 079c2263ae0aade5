package buffer

// IReplacer tracks which frames are currently eviction eligible and chooses among them.
// It only ever sees frame indices, never page content. A frame is in a replacer's tracked
// set iff its page is resident and unpinned.
type IReplacer interface {
	// Pin removes a frame from eviction consideration. Idempotent if already untracked.
	Pin(frameId int)

	// Unpin marks a frame as eviction eligible.
	Unpin(frameId int)

	// ChooseVictim picks the next frame to evict and removes it from the tracked set.
	// Returns an error only when no frame is tracked at all.
	ChooseVictim() (frameId int, err error)

	// Size returns the number of currently tracked frames.
	Size() int
}
