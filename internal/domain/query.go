package domain

import (
	"sort"
	"strconv"
	"strings"
)

// ListQuery is the full paging/filter/search state of one resource
// list. It is the single source of truth a list screen renders from.
type ListQuery struct {
	Page     int
	PageSize int
	Search   string
	Filters  map[string]string
	Sort     string
	Order    string
}

// Clone returns a deep copy so a mutated query never aliases the one
// an in-flight request was issued with.
func (q ListQuery) Clone() ListQuery {
	out := q
	out.Filters = make(map[string]string, len(q.Filters))
	for k, v := range q.Filters {
		out.Filters[k] = v
	}
	return out
}

// Key returns a canonical string form of the query. Two queries with
// identical semantics always produce the same key, which is what lets
// identical concurrent requests collapse into one backend call.
func (q ListQuery) Key() string {
	var b strings.Builder
	b.WriteString("p=")
	b.WriteString(strconv.Itoa(q.Page))
	b.WriteString(";ps=")
	b.WriteString(strconv.Itoa(q.PageSize))
	b.WriteString(";s=")
	b.WriteString(q.Search)
	b.WriteString(";sort=")
	b.WriteString(q.Sort)
	b.WriteString(":")
	b.WriteString(q.Order)

	keys := make([]string, 0, len(q.Filters))
	for k := range q.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString(";f:")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(q.Filters[k])
	}
	return b.String()
}

// Page is one loaded page of records together with the pagination
// facts the list screen renders.
type Page[T any] struct {
	Items       []T
	CurrentPage int
	TotalPages  int
	TotalCount  int64
}
