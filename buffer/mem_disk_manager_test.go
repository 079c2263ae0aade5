package buffer

import (
	"tern/disk"
)

var _ disk.IDiskManager = &memDiskManager{}

// memDiskManager keeps pages in a map and records every read and write per page id, so that
// tests can assert exactly which pages hit the disk and how often.
type memDiskManager struct {
	pages       map[uint64][]byte
	reads       map[uint64]int
	writes      map[uint64]int
	deallocated []uint64
	lastPageId  uint64
}

func newMemDiskManager() *memDiskManager {
	return &memDiskManager{
		pages:  map[uint64][]byte{},
		reads:  map[uint64]int{},
		writes: map[uint64]int{},
	}
}

func (m *memDiskManager) ReadPage(pageId uint64, dest []byte) error {
	m.reads[pageId]++

	if data, ok := m.pages[pageId]; ok {
		copy(dest, data)
		return nil
	}

	// never written pages read back as zeroes, like a file backed manager past its EOF
	for i := range dest {
		dest[i] = 0
	}
	return nil
}

func (m *memDiskManager) WritePage(data []byte, pageId uint64) error {
	m.writes[pageId]++

	stored := make([]byte, len(data))
	copy(stored, data)
	m.pages[pageId] = stored
	return nil
}

func (m *memDiskManager) AllocatePage() (pageId uint64) {
	m.lastPageId++
	return m.lastPageId
}

func (m *memDiskManager) DeallocatePage(pageId uint64) {
	m.deallocated = append(m.deallocated, pageId)
	delete(m.pages, pageId)
}

func (m *memDiskManager) Close() error {
	return nil
}
