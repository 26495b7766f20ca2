package console

import (
	"context"
	"sync"

	"github.com/asaskevich/EventBus"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/bozorplus/bozoradmin/internal/domain"
)

// State is the list lifecycle: every query mutation enters Loading and
// lands in Loaded or Failed. A failure keeps the previously loaded
// page visible.
type State int32

const (
	StateIdle State = iota
	StateLoading
	StateLoaded
	StateFailed
)

// Source is what a list controller needs from a repository
type Source[T any] interface {
	List(ctx context.Context, q domain.ListQuery) (*domain.Page[T], error)
	Delete(ctx context.Context, id string) error
}

// ListController owns the paging/filter/search state of one resource
// screen and keeps the displayed page synchronized with it.
//
// Concurrency contract: a newer query supersedes an in-flight one.
// Every fetch takes a sequence number; a response is applied only when
// its sequence is still the latest issued, so a slow early request can
// never overwrite a faster later one. Identical concurrent queries
// collapse into a single backend call.
type ListController[T any] struct {
	resource string
	source   Source[T]
	notify   NotifyFunc

	sf singleflight.Group

	mu    sync.Mutex
	query domain.ListQuery
	page  domain.Page[T]
	state State
	seq   uint64
}

// ListOption customizes a list controller
type ListOption[T any] func(*ListController[T])

// WithNotify installs the failure notification sink
func WithNotify[T any](fn NotifyFunc) ListOption[T] {
	return func(c *ListController[T]) { c.notify = fn }
}

// WithBus binds the controller to form-saved events for its resource
func WithBus[T any](bus EventBus.Bus) ListOption[T] {
	return func(c *ListController[T]) {
		_ = bus.SubscribeAsync(TopicFormSaved, func(resource string) {
			if resource == c.resource {
				c.Refresh(context.Background())
			}
		}, false)
	}
}

// NewList creates a list controller for one resource screen
func NewList[T any](resource string, source Source[T], pageSize int, opts ...ListOption[T]) *ListController[T] {
	c := &ListController[T]{
		resource: resource,
		source:   source,
		query: domain.ListQuery{
			Page:     1,
			PageSize: pageSize,
			Filters:  map[string]string{},
		},
		state: StateIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetPage requests page n with the current filters. Out-of-range pages
// are a no-op: no fetch is triggered and filters stay untouched.
func (c *ListController[T]) SetPage(ctx context.Context, n int) {
	c.mu.Lock()
	if n < 1 || (c.page.TotalPages > 0 && n > c.page.TotalPages) {
		c.mu.Unlock()
		return
	}
	q := c.query.Clone()
	q.Page = n
	c.mu.Unlock()
	c.fetch(ctx, q)
}

// SetFilter updates one filter dimension. Changing a filter always
// resets to page 1 because the old page boundary is meaningless under
// the new result set.
func (c *ListController[T]) SetFilter(ctx context.Context, key, value string) {
	c.mu.Lock()
	q := c.query.Clone()
	if q.Filters == nil {
		q.Filters = map[string]string{}
	}
	if value == "" {
		delete(q.Filters, key)
	} else {
		q.Filters[key] = value
	}
	q.Page = 1
	c.mu.Unlock()
	c.fetch(ctx, q)
}

// SetSearch updates the search text with the same reset-to-page-1
// contract as SetFilter. Repeating the identical search is safe:
// concurrent identical queries share one backend call.
func (c *ListController[T]) SetSearch(ctx context.Context, text string) {
	c.mu.Lock()
	q := c.query.Clone()
	q.Search = text
	q.Page = 1
	c.mu.Unlock()
	c.fetch(ctx, q)
}

// Refresh re-issues the current query unchanged. Safe to call after a
// mutation even when the current page no longer exists; the response
// clamp re-requests the last valid page.
func (c *ListController[T]) Refresh(ctx context.Context) {
	c.mu.Lock()
	q := c.query.Clone()
	c.mu.Unlock()
	c.fetch(ctx, q)
}

// DeleteRecord removes a record server-side and refreshes on
// confirmation. Local state is never touched before the server
// acknowledges, so a failed delete never shows the record as gone.
func (c *ListController[T]) DeleteRecord(ctx context.Context, id string) error {
	if err := c.source.Delete(ctx, id); err != nil {
		c.fail("delete failed", err)
		return err
	}
	c.Refresh(ctx)
	return nil
}

func (c *ListController[T]) fetch(ctx context.Context, q domain.ListQuery) {
	c.mu.Lock()
	c.seq++
	my := c.seq
	c.query = q
	c.state = StateLoading
	c.mu.Unlock()

	res, err, _ := c.sf.Do(q.Key(), func() (interface{}, error) {
		return c.source.List(ctx, q)
	})

	c.mu.Lock()
	if my != c.seq {
		// superseded by a newer query; discard
		c.mu.Unlock()
		return
	}
	if err != nil {
		c.state = StateFailed
		c.mu.Unlock()
		c.fail("fetch failed", err)
		return
	}
	page := res.(*domain.Page[T])

	// the requested page vanished (e.g. last item deleted): clamp to
	// the last remaining page, or page 1 when the set is empty
	if q.Page > 1 {
		target := 0
		if page.TotalPages > 0 && q.Page > page.TotalPages {
			target = page.TotalPages
		} else if page.TotalPages == 0 {
			target = 1
		}
		if target > 0 {
			c.mu.Unlock()
			nq := q.Clone()
			nq.Page = target
			c.fetch(ctx, nq)
			return
		}
	}

	c.page = *page
	if c.page.CurrentPage == 0 {
		c.page.CurrentPage = q.Page
	}
	c.state = StateLoaded
	c.mu.Unlock()
}

func (c *ListController[T]) fail(msg string, err error) {
	zap.L().Warn("list controller error",
		zap.String("resource", c.resource),
		zap.String("op", msg),
		zap.Error(err),
	)
	if c.notify != nil {
		c.notify(Notice{Resource: c.resource, Message: msg, Err: err})
	}
}

// Items returns the displayed page items in server order
func (c *ListController[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]T, len(c.page.Items))
	copy(out, c.page.Items)
	return out
}

// CurrentPage returns the displayed page number
func (c *ListController[T]) CurrentPage() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.page.CurrentPage
}

// TotalPages returns the last known page count
func (c *ListController[T]) TotalPages() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.page.TotalPages
}

// State returns the lifecycle state
func (c *ListController[T]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Query returns a copy of the active query
func (c *ListController[T]) Query() domain.ListQuery {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.query.Clone()
}
