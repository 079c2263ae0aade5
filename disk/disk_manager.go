package disk

import (
	"encoding/binary"
	"io"
	"log"
	"os"
	"sync"

	"github.com/pkg/errors"
)

const PageSize int = 4096

// InvalidPageID is the reserved sentinel meaning "no page". Page 0 keeps the manager's
// header, hence AllocatePage never hands it out.
const InvalidPageID uint64 = 0

// FlushInstantly should normally be set to true. If it is false then data might be lost even
// after a successful write operation when power loss occurs before os flushes its io buffers.
// But when it is false, tests run a lot faster thanks to io scheduling of os. Setting it to
// false does not change the validity of any test unless a test is simulating a power loss.
const FlushInstantly bool = false

// IDiskManager is the narrow surface the buffer pool consumes. All calls are synchronous;
// this layer defines no retry semantics for disk errors.
type IDiskManager interface {
	// ReadPage fills dest, which must be PageSize long, with the content of the physical page.
	ReadPage(pageId uint64, dest []byte) error

	// WritePage persists a PageSize long buffer as the content of the physical page.
	WritePage(data []byte, pageId uint64) error

	// AllocatePage reserves a new unique on-disk page id.
	AllocatePage() (pageId uint64)

	// DeallocatePage releases on-disk space so that the id can be served again by AllocatePage.
	DeallocatePage(pageId uint64)

	Close() error
}

var _ IDiskManager = &Manager{}

type Manager struct {
	file       *os.File
	filename   string
	lastPageId uint64
	mu         sync.Mutex
	header     *header
}

// NewDiskManager opens or creates a single file database. Second return value reports
// whether the file is newly created.
func NewDiskManager(file string) (*Manager, bool, error) {
	d := Manager{filename: file}

	f, err := os.OpenFile(file, os.O_CREATE|os.O_RDWR, os.ModePerm)
	if err != nil {
		return nil, false, errors.Wrap(err, "could not open db file")
	}

	d.file = f
	stats, err := f.Stat()
	if err != nil {
		return nil, false, errors.Wrap(err, "could not stat db file")
	}

	filesize := stats.Size()
	log.Printf("db is initializing, file size is %d \n", filesize)

	if filesize == 0 {
		// first page is reserved for the header, so allocation starts from 1
		d.lastPageId = 0
		d.initHeader()
		return &d, true, nil
	}

	d.lastPageId = uint64((int(filesize) / PageSize) - 1)
	return &d, false, nil
}

func (d *Manager) ReadPage(pageId uint64, dest []byte) error {
	if len(dest) != PageSize {
		return errors.Errorf("destination buffer is not page sized, len: %d", len(dest))
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	return d.readPage(pageId, dest)
}

func (d *Manager) WritePage(data []byte, pageId uint64) error {
	if len(data) != PageSize {
		return errors.Errorf("data is not page sized, len: %d", len(data))
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	return d.writePage(data, pageId)
}

func (d *Manager) AllocatePage() (pageId uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	// if pop free list is successful return popped page
	if p := d.popFreeList(); p != InvalidPageID {
		return p
	}

	// else extend the file
	d.lastPageId++
	return d.lastPageId
}

// DeallocatePage appends page with the given id to the on-disk free list and sets it as tail.
func (d *Manager) DeallocatePage(pageId uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	h := d.getHeader()

	// if free list is empty
	if h.freeListHead == InvalidPageID {
		h.freeListHead = pageId
		h.freeListTail = pageId
		d.setHeader(h)
		return
	}

	// link the old tail to the freed page. the tail might never have been synced to file yet,
	// in that case readPage returns zeroed bytes which is a valid empty page.
	data := make([]byte, PageSize)
	if err := d.readPage(h.freeListTail, data); err != nil {
		panic(err)
	}

	binary.BigEndian.PutUint64(data, pageId)
	if err := d.writePage(data, h.freeListTail); err != nil {
		panic(err)
	}

	h.freeListTail = pageId
	d.setHeader(h)
}

func (d *Manager) Close() error {
	return d.file.Close()
}

func (d *Manager) readPage(pageId uint64, dest []byte) error {
	_, err := d.file.Seek(int64(PageSize)*int64(pageId), io.SeekStart)
	if err != nil {
		return errors.Wrapf(err, "could not seek to page %d", pageId)
	}

	n, err := io.ReadFull(d.file, dest)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		// the page is allocated but its bytes were never synced. zero fill the rest.
		for i := n; i < PageSize; i++ {
			dest[i] = 0
		}
		return nil
	}

	return errors.Wrapf(err, "could not read page %d", pageId)
}

func (d *Manager) writePage(data []byte, pageId uint64) error {
	_, err := d.file.Seek(int64(PageSize)*int64(pageId), io.SeekStart)
	if err != nil {
		return errors.Wrapf(err, "could not seek to page %d", pageId)
	}

	n, err := d.file.Write(data)
	if err != nil {
		return errors.Wrapf(err, "could not write page %d", pageId)
	}
	if n != PageSize {
		panic("written bytes are not equal to page size")
	}

	if FlushInstantly {
		if err := d.file.Sync(); err != nil {
			panic(err)
		}
	}

	return nil
}

func (d *Manager) popFreeList() (pageId uint64) {
	// if list is empty return the sentinel
	h := d.getHeader()
	if h.freeListHead == InvalidPageID {
		return InvalidPageID
	}

	// if there is only one entry in free list return that and set head and tail to 0
	if h.freeListHead == h.freeListTail {
		pageId = h.freeListHead
		h.freeListHead, h.freeListTail = InvalidPageID, InvalidPageID
		d.setHeader(h)
		return
	}

	// else pop head, read new head and update header
	pageId = h.freeListHead

	data := make([]byte, PageSize)
	if err := d.readPage(h.freeListHead, data); err != nil {
		panic(err)
	}

	h.freeListHead = binary.BigEndian.Uint64(data)
	d.setHeader(h)
	return
}

func (d *Manager) getHeader() header {
	if d.header != nil {
		return *d.header
	}

	data := make([]byte, PageSize)
	if err := d.readPage(0, data); err != nil {
		panic(err)
	}

	h := readHeader(data)
	d.header = &h
	return h
}

func (d *Manager) setHeader(h header) {
	d.header = &h
	page := make([]byte, PageSize)
	writeHeader(h, page)
	if err := d.writePage(page, 0); err != nil {
		panic(err)
	}
}

func (d *Manager) initHeader() {
	d.setHeader(header{
		freeListHead: InvalidPageID,
		freeListTail: InvalidPageID,
	})
}

type header struct {
	freeListHead uint64
	freeListTail uint64
}

func readHeader(data []byte) header {
	return header{
		freeListHead: binary.BigEndian.Uint64(data),
		freeListTail: binary.BigEndian.Uint64(data[8:]),
	}
}

func writeHeader(h header, dest []byte) {
	binary.BigEndian.PutUint64(dest, h.freeListHead)
	binary.BigEndian.PutUint64(dest[8:], h.freeListTail)
}
