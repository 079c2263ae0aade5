package buffer

import (
	"tern/disk/pages"
)

const (
	Read = iota
	Write
)

// PageReleaser is a pin guard: it wraps a fetched page together with its latch and performs
// the unpin accounting on Release, so that forgetting to unpin is structurally harder than
// calling UnpinPage by hand.
type PageReleaser interface {
	pages.IPage
	Release(dirty bool)
}

// FetchPageReleaser fetches and latches a page in the requested mode and returns a guard
// that unlatches and unpins it on Release.
func (b *BufferPool) FetchPageReleaser(pageId uint64, mode int) (PageReleaser, error) {
	p, err := b.FetchPage(pageId)
	if err != nil {
		return nil, err
	}
	if mode == Read {
		p.RLatch()
		return &readPageReleaser{p, b}, nil
	}
	p.WLatch()
	return &writePageReleaser{p, b}, nil
}

// NewPageReleaser allocates a new page through NewPage and returns it write latched.
func (b *BufferPool) NewPageReleaser() (PageReleaser, error) {
	p, err := b.NewPage()
	if err != nil {
		return nil, err
	}
	p.WLatch()
	return &writePageReleaser{p, b}, nil
}

type readPageReleaser struct {
	pages.IPage
	pool *BufferPool
}

func (n *readPageReleaser) Release(dirty bool) {
	n.RUnLatch()
	n.pool.UnpinPage(n.GetPageId(), dirty)
}

type writePageReleaser struct {
	pages.IPage
	pool *BufferPool
}

func (n *writePageReleaser) Release(dirty bool) {
	n.WUnlatch()
	n.pool.UnpinPage(n.GetPageId(), dirty)
}
