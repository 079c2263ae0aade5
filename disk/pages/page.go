package pages

import (
	"sync"

	"tern/disk"
)

// IPage is a wrapper for actual physical pages in the file system. It can provide the actual
// content of the physical page as a byte array. It also keeps some useful information about
// the page for the buffer pool.
type IPage interface {
	GetData() []byte

	// GetPageId returns the page_id of the physical page.
	GetPageId() uint64
	GetPinCount() int
	IsDirty() bool
	SetDirty()
	SetClean()
	WLatch()
	WUnlatch()
	RLatch()
	RUnLatch()
	IncrPinCount()
	DecrPinCount()
}

var _ IPage = &RawPage{}

// RawPage is one frame slot's worth of state. Its Data buffer is owned by the frame and is
// reused across every page that occupies the frame.
type RawPage struct {
	pageId   uint64
	isDirty  bool
	rwLatch  sync.RWMutex
	pinCount int
	Data     []byte
}

func NewRawPage(pageId uint64) *RawPage {
	return &RawPage{
		pageId: pageId,
		Data:   make([]byte, disk.PageSize),
	}
}

func (p *RawPage) GetData() []byte {
	return p.Data
}

func (p *RawPage) GetPageId() uint64 {
	return p.pageId
}

// SetPageId rewrites the page's identity. Called only when the frame holding the page
// is repurposed.
func (p *RawPage) SetPageId(pageId uint64) {
	p.pageId = pageId
}

func (p *RawPage) GetPinCount() int {
	return p.pinCount
}

// SetPinCount overwrites the pin count. Only the buffer pool calls this, when a frame is
// repurposed or released.
func (p *RawPage) SetPinCount(count int) {
	p.pinCount = count
}

func (p *RawPage) IncrPinCount() {
	p.pinCount++
}

func (p *RawPage) DecrPinCount() {
	p.pinCount--
}

func (p *RawPage) IsDirty() bool {
	return p.isDirty
}

func (p *RawPage) SetDirty() {
	p.isDirty = true
}

func (p *RawPage) SetClean() {
	p.isDirty = false
}

// Reset zeroes the page's memory and clears its dirty flag, leaving identity and pin count
// untouched.
func (p *RawPage) Reset() {
	for i := range p.Data {
		p.Data[i] = 0
	}
	p.isDirty = false
}

func (p *RawPage) WLatch() {
	p.rwLatch.Lock()
}

func (p *RawPage) WUnlatch() {
	p.rwLatch.Unlock()
}

func (p *RawPage) RLatch() {
	p.rwLatch.RLock()
}

func (p *RawPage) RUnLatch() {
	p.rwLatch.RUnlock()
}
