package buffer

import (
	"sync"

	"github.com/pkg/errors"

	"tern/common"
	"tern/disk"
	"tern/disk/pages"
	"tern/disk/wal"
)

// ErrNoAvailableFrame is returned by FetchPage and NewPage when the free list is empty and
// the replacer has no eviction eligible frame, meaning every frame is pinned. The caller can
// recover by unpinning pages elsewhere and retrying.
var ErrNoAvailableFrame = errors.New("no free frame and no eviction eligible frame")

type Pool interface {
	FetchPage(pageId uint64) (*pages.RawPage, error)
	UnpinPage(pageId uint64, isDirty bool) bool
	FlushPage(pageId uint64) bool
	NewPage() (*pages.RawPage, error)
	DeletePage(pageId uint64) bool
	FlushAll() error

	// EmptyFrameSize returns the number of frames which do not hold data of any physical page.
	EmptyFrameSize() int
}

type frame struct {
	page *pages.RawPage
}

var _ Pool = &BufferPool{}

// BufferPool mediates every access to on-disk pages. It owns a fixed array of frames, a
// page_id => frame index table, a free list of never used frames and a replacer tracking
// eviction eligible frames. A frame belongs to exactly one of the free list, the replacer's
// tracked set, or the pinned remainder at any time.
//
// Operations are synchronous and bounded; a single mutex covers every table lookup through
// metadata update so the check-then-act sequences stay atomic under concurrent callers.
type BufferPool struct {
	poolSize    int
	frames      []*frame
	pageMap     map[uint64]int // physical page_id => frame index which keeps that page
	emptyFrames []int          // list of indexes that point to empty frames in the pool
	Replacer    IReplacer
	DiskManager disk.IDiskManager

	// logManager is a constructor collaborator reserved for write ahead log ordering. The
	// pool never appends records itself; that coupling belongs to the transaction layer.
	logManager wal.LogManager

	lock sync.Mutex
}

func NewBufferPool(dbFile string, poolSize int) *BufferPool {
	d, _, err := disk.NewDiskManager(dbFile)
	common.PanicIfErr(err)

	return NewBufferPoolWithDM(poolSize, d, wal.NoopLM)
}

func NewBufferPoolWithDM(poolSize int, dm disk.IDiskManager, logManager wal.LogManager) *BufferPool {
	emptyFrames := make([]int, poolSize)
	for i := 0; i < poolSize; i++ {
		emptyFrames[i] = i
	}

	if logManager == nil {
		logManager = wal.NoopLM
	}

	return &BufferPool{
		poolSize:    poolSize,
		frames:      make([]*frame, poolSize),
		pageMap:     map[uint64]int{},
		emptyFrames: emptyFrames,
		Replacer:    NewClockReplacer(poolSize),
		DiskManager: dm,
		logManager:  logManager,
	}
}

// FetchPage returns the requested page pinned. When the page is already resident no disk io
// happens at all; otherwise a victim frame is repurposed and the page's bytes are read from
// disk. Returns ErrNoAvailableFrame when every frame is pinned.
func (b *BufferPool) FetchPage(pageId uint64) (*pages.RawPage, error) {
	b.lock.Lock()
	defer b.lock.Unlock()

	if frameIdx, ok := b.pageMap[pageId]; ok {
		p := b.frames[frameIdx].page
		p.IncrPinCount()
		b.Replacer.Pin(frameIdx)
		return p, nil
	}

	frameIdx, err := b.victimFrame()
	if err != nil {
		return nil, err
	}

	p, err := b.repurposeFrame(frameIdx, pageId)
	if err != nil {
		return nil, err
	}

	if err := b.DiskManager.ReadPage(pageId, p.GetData()); err != nil {
		// roll back so that the frame is not leaked
		delete(b.pageMap, pageId)
		p.SetPinCount(0)
		p.SetPageId(disk.InvalidPageID)
		b.emptyFrames = append(b.emptyFrames, frameIdx)
		return nil, errors.Wrapf(err, "could not fetch page %d", pageId)
	}

	return p, nil
}

// UnpinPage releases one pin on the page. When the pin count reaches zero the page is written
// back if dirty, reported to the replacer as eviction eligible and dropped from the page
// table. Reports failure when the page is not resident or was already unpinned to zero.
func (b *BufferPool) UnpinPage(pageId uint64, isDirty bool) bool {
	b.lock.Lock()
	defer b.lock.Unlock()

	frameIdx, ok := b.pageMap[pageId]
	if !ok {
		return false
	}

	p := b.frames[frameIdx].page
	if p.GetPinCount() <= 0 {
		return false
	}

	if isDirty {
		p.SetDirty()
	}

	p.DecrPinCount()
	if p.GetPinCount() == 0 {
		if p.IsDirty() {
			err := b.DiskManager.WritePage(p.GetData(), pageId)
			common.PanicIfErr(err)
			// the frame stays eviction eligible with the page's bytes; it must read as clean
			// or a later eviction would rewrite this stale copy over newer writes
			p.SetClean()
		}
		b.Replacer.Unpin(frameIdx)
		delete(b.pageMap, pageId)
	}

	return true
}

// FlushPage force writes a resident page's bytes to disk regardless of its dirty flag and
// then releases the frame: it is reported to the replacer and dropped from the page table
// even if callers still hold pins. Holders must not rely on residency afterwards.
func (b *BufferPool) FlushPage(pageId uint64) bool {
	b.lock.Lock()
	defer b.lock.Unlock()

	frameIdx, ok := b.pageMap[pageId]
	if !ok {
		return false
	}

	p := b.frames[frameIdx].page
	err := b.DiskManager.WritePage(p.GetData(), pageId)
	common.PanicIfErr(err)
	p.SetClean()

	b.Replacer.Unpin(frameIdx)
	delete(b.pageMap, pageId)
	return true
}

// NewPage allocates a fresh on-disk page id, repurposes a victim frame for it and returns
// the page pinned with zeroed memory. No disk read happens. Returns ErrNoAvailableFrame
// when every frame is pinned.
func (b *BufferPool) NewPage() (*pages.RawPage, error) {
	b.lock.Lock()
	defer b.lock.Unlock()

	frameIdx, err := b.victimFrame()
	if err != nil {
		return nil, err
	}

	pageId := b.DiskManager.AllocatePage()
	return b.repurposeFrame(frameIdx, pageId)
}

// DeletePage removes a resident page from the pool and deallocates its on-disk space. It is
// idempotent: deleting an absent page succeeds without touching any state. Deleting a pinned
// page fails, also without touching any state.
func (b *BufferPool) DeletePage(pageId uint64) bool {
	b.lock.Lock()
	defer b.lock.Unlock()

	frameIdx, ok := b.pageMap[pageId]
	if !ok {
		return true
	}

	p := b.frames[frameIdx].page
	if p.GetPinCount() > 0 {
		return false
	}

	delete(b.pageMap, pageId)
	b.Replacer.Pin(frameIdx)
	p.SetPinCount(0)
	p.SetClean()
	p.SetPageId(disk.InvalidPageID)

	// the frame is genuinely empty now, so it goes to the free list and not the replacer
	b.emptyFrames = append(b.emptyFrames, frameIdx)
	b.DiskManager.DeallocatePage(pageId)
	return true
}

// FlushAll writes every resident page to disk unconditionally, reports every frame to the
// replacer as eviction eligible and clears the page table.
func (b *BufferPool) FlushAll() error {
	b.lock.Lock()
	defer b.lock.Unlock()

	for pageId, frameIdx := range b.pageMap {
		p := b.frames[frameIdx].page
		if err := b.DiskManager.WritePage(p.GetData(), pageId); err != nil {
			return errors.Wrapf(err, "could not flush page %d", pageId)
		}
		p.SetClean()
		b.Replacer.Unpin(frameIdx)
	}

	b.pageMap = map[uint64]int{}
	return nil
}

func (b *BufferPool) EmptyFrameSize() int {
	b.lock.Lock()
	defer b.lock.Unlock()

	return len(b.emptyFrames)
}

// victimFrame returns the index of a frame that can be repurposed. The free list is always
// consulted first: no page is ever evicted while unused capacity remains, which keeps hot
// data resident longer and avoids needless write backs.
func (b *BufferPool) victimFrame() (int, error) {
	if len(b.emptyFrames) > 0 {
		frameIdx := b.emptyFrames[0]
		b.emptyFrames = b.emptyFrames[1:]
		return frameIdx, nil
	}

	frameIdx, err := b.Replacer.ChooseVictim()
	if err != nil {
		return 0, ErrNoAvailableFrame
	}

	return frameIdx, nil
}

// repurposeFrame evicts the frame's current occupant if any, writing it back when dirty, and
// installs the new page id with a single pin and zeroed memory.
func (b *BufferPool) repurposeFrame(frameIdx int, pageId uint64) (*pages.RawPage, error) {
	if b.frames[frameIdx] == nil {
		b.frames[frameIdx] = &frame{page: pages.NewRawPage(disk.InvalidPageID)}
	}

	p := b.frames[frameIdx].page
	oldPageId := p.GetPageId()
	if oldPageId != disk.InvalidPageID && p.IsDirty() {
		if err := b.DiskManager.WritePage(p.GetData(), oldPageId); err != nil {
			// roll back: the old occupant stays in its frame and eviction eligible
			b.Replacer.Unpin(frameIdx)
			return nil, errors.Wrapf(err, "could not write back victim page %d", oldPageId)
		}
	}

	delete(b.pageMap, oldPageId)
	p.Reset()
	p.SetPageId(pageId)
	p.SetPinCount(1)
	b.pageMap[pageId] = frameIdx
	b.Replacer.Pin(frameIdx)
	return p, nil
}
