package wal

import (
	"bufio"
	"encoding/binary"
	"io"
	"sync"

	"tern/disk/pages"
)

// LogManager is the write ahead log collaborator of the buffer pool. The pool itself never
// appends records; force-flush-log-before-page ordering is driven by the transaction layer
// that sits above it.
type LogManager interface {
	// AppendLog appends a record to the log buffer and returns its lsn. It does not flush.
	AppendLog(payload []byte) pages.LSN

	// Flush syncs the log buffer to the underlying writer.
	Flush() error

	// GetFlushedLSN returns the latest lsn known to be persisted.
	GetFlushedLSN() pages.LSN
}

var _ LogManager = &BufferedLogManager{}

// BufferedLogManager writes length prefixed records to an underlying writer through a buffer.
type BufferedLogManager struct {
	mu       sync.Mutex
	currLsn  pages.LSN
	flushed  pages.LSN
	buffered pages.LSN
	w        *bufio.Writer
}

func NewLogManager(w io.Writer) *BufferedLogManager {
	return &BufferedLogManager{
		w: bufio.NewWriter(w),
	}
}

func (l *BufferedLogManager) AppendLog(payload []byte) pages.LSN {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.currLsn++

	var hdr [12]byte
	pages.PutLSN(hdr[:], l.currLsn)
	binary.BigEndian.PutUint32(hdr[8:], uint32(len(payload)))

	if _, err := l.w.Write(hdr[:]); err != nil {
		panic(err)
	}
	if _, err := l.w.Write(payload); err != nil {
		panic(err)
	}

	l.buffered = l.currLsn
	return l.currLsn
}

func (l *BufferedLogManager) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.w.Flush(); err != nil {
		return err
	}

	l.flushed = l.buffered
	return nil
}

func (l *BufferedLogManager) GetFlushedLSN() pages.LSN {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.flushed
}
