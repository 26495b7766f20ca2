package console

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bozorplus/bozoradmin/internal/domain"
)

type fakeSource struct {
	mu      sync.Mutex
	calls   []domain.ListQuery
	deleted []string

	respond   func(q domain.ListQuery) (*domain.Page[string], error)
	deleteErr error
	// block, when set, holds List calls matching the predicate until
	// the channel is closed
	block   chan struct{}
	blockOn func(q domain.ListQuery) bool
	started chan struct{}
}

func (f *fakeSource) List(ctx context.Context, q domain.ListQuery) (*domain.Page[string], error) {
	f.mu.Lock()
	f.calls = append(f.calls, q.Clone())
	started := f.started
	f.mu.Unlock()
	if started != nil {
		select {
		case started <- struct{}{}:
		default:
		}
	}
	if f.block != nil && f.blockOn != nil && f.blockOn(q) {
		<-f.block
	}
	return f.respond(q)
}

func (f *fakeSource) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	f.deleted = append(f.deleted, id)
	f.mu.Unlock()
	return f.deleteErr
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func pageOf(items []string, current, total int) *domain.Page[string] {
	return &domain.Page[string]{
		Items:       items,
		CurrentPage: current,
		TotalPages:  total,
		TotalCount:  int64(len(items)),
	}
}

func TestSetPageOutOfRangeIsNoop(t *testing.T) {
	src := &fakeSource{
		respond: func(q domain.ListQuery) (*domain.Page[string], error) {
			return pageOf([]string{"a", "b"}, q.Page, 3), nil
		},
	}
	c := NewList[string]("product", src, 10)
	c.Refresh(context.Background())
	require.Equal(t, 1, src.callCount())
	require.Equal(t, 3, c.TotalPages())

	c.SetPage(context.Background(), 0)
	c.SetPage(context.Background(), -5)
	c.SetPage(context.Background(), 4)
	assert.Equal(t, 1, src.callCount(), "out-of-range pages must not hit the backend")
	assert.Equal(t, 1, c.CurrentPage())

	c.SetPage(context.Background(), 3)
	assert.Equal(t, 2, src.callCount())
	assert.Equal(t, 3, c.CurrentPage())
}

func TestFilterAndSearchResetToFirstPage(t *testing.T) {
	src := &fakeSource{
		respond: func(q domain.ListQuery) (*domain.Page[string], error) {
			return pageOf([]string{"x"}, q.Page, 5), nil
		},
	}
	c := NewList[string]("product", src, 10)
	c.Refresh(context.Background())
	c.SetPage(context.Background(), 3)
	require.Equal(t, 3, c.Query().Page)

	c.SetFilter(context.Background(), "category", "7")
	assert.Equal(t, 1, c.Query().Page)
	assert.Equal(t, "7", c.Query().Filters["category"])

	c.SetPage(context.Background(), 4)
	c.SetSearch(context.Background(), "olma")
	q := c.Query()
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, "olma", q.Search)
	assert.Equal(t, "7", q.Filters["category"], "search must not clear filters")
}

func TestClearingFilterRemovesDimension(t *testing.T) {
	src := &fakeSource{
		respond: func(q domain.ListQuery) (*domain.Page[string], error) {
			return pageOf(nil, q.Page, 1), nil
		},
	}
	c := NewList[string]("product", src, 10)
	c.SetFilter(context.Background(), "category", "7")
	c.SetFilter(context.Background(), "category", "")
	_, ok := c.Query().Filters["category"]
	assert.False(t, ok)
}

func TestStaleResponseIsDiscarded(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	src := &fakeSource{
		block:   release,
		started: started,
		blockOn: func(q domain.ListQuery) bool { return q.Search == "slow" },
		respond: func(q domain.ListQuery) (*domain.Page[string], error) {
			if q.Search == "slow" {
				return pageOf([]string{"stale"}, 1, 1), nil
			}
			return pageOf([]string{"fresh"}, 1, 1), nil
		},
	}
	c := NewList[string]("product", src, 10)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.SetSearch(context.Background(), "slow")
	}()
	<-started // the slow request is in flight and holds the latest seq... until the next call

	c.SetSearch(context.Background(), "fast")
	require.Equal(t, []string{"fresh"}, c.Items())

	close(release)
	wg.Wait()

	assert.Equal(t, []string{"fresh"}, c.Items(), "late slow response must not overwrite the newer one")
	assert.Equal(t, "fast", c.Query().Search)
	assert.Equal(t, StateLoaded, c.State())
}

func TestFailureKeepsPreviousPage(t *testing.T) {
	failing := false
	var notices []Notice
	src := &fakeSource{
		respond: func(q domain.ListQuery) (*domain.Page[string], error) {
			if failing {
				return nil, errors.New("backend down")
			}
			return pageOf([]string{"a", "b"}, q.Page, 2), nil
		},
	}
	c := NewList[string]("product", src, 10,
		WithNotify[string](func(n Notice) { notices = append(notices, n) }),
	)
	c.Refresh(context.Background())
	require.Equal(t, StateLoaded, c.State())

	failing = true
	c.SetPage(context.Background(), 2)

	assert.Equal(t, StateFailed, c.State())
	assert.Equal(t, []string{"a", "b"}, c.Items(), "failed fetch must keep the last good page")
	require.Len(t, notices, 1)
	assert.Equal(t, "product", notices[0].Resource)
}

func TestDeleteLastItemClampsToLastPage(t *testing.T) {
	itemCount := 3
	src := &fakeSource{}
	src.respond = func(q domain.ListQuery) (*domain.Page[string], error) {
		// 2 items per page
		total := (itemCount + 1) / 2
		if q.Page > total {
			return pageOf(nil, q.Page, total), nil
		}
		return pageOf([]string{"item"}, q.Page, total), nil
	}
	c := NewList[string]("product", src, 2)
	c.Refresh(context.Background())
	c.SetPage(context.Background(), 2)
	require.Equal(t, 2, c.CurrentPage())

	// deleting the only item of page 2 shrinks the set to one page
	itemCount = 2
	err := c.DeleteRecord(context.Background(), "last")
	require.NoError(t, err)

	assert.Equal(t, []string{"last"}, src.deleted)
	assert.Equal(t, 1, c.CurrentPage())
	assert.Equal(t, 1, c.TotalPages())
	assert.Equal(t, StateLoaded, c.State())
}

func TestDeleteFailureLeavesListUntouched(t *testing.T) {
	src := &fakeSource{
		deleteErr: errors.New("forbidden"),
		respond: func(q domain.ListQuery) (*domain.Page[string], error) {
			return pageOf([]string{"a"}, q.Page, 1), nil
		},
	}
	c := NewList[string]("product", src, 10)
	c.Refresh(context.Background())
	before := src.callCount()

	err := c.DeleteRecord(context.Background(), "a")
	require.Error(t, err)
	assert.Equal(t, before, src.callCount(), "failed delete must not refresh")
	assert.Equal(t, []string{"a"}, c.Items())
}

func TestIdenticalConcurrentQueriesCollapse(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	src := &fakeSource{
		block:   release,
		started: started,
		blockOn: func(q domain.ListQuery) bool { return true },
		respond: func(q domain.ListQuery) (*domain.Page[string], error) {
			return pageOf([]string{"a"}, q.Page, 1), nil
		},
	}
	c := NewList[string]("product", src, 10)

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Refresh(context.Background())
		}()
	}
	<-started
	// give the remaining goroutines time to join the in-flight call
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, src.callCount(), 2, "identical queries should share backend calls")
	assert.Equal(t, []string{"a"}, c.Items())
}
