package restclient

import (
	"github.com/pkg/errors"
	"github.com/spf13/cast"

	"github.com/bozorplus/bozoradmin/internal/domain"
)

// Envelope is the single normalized shape of a list response. The
// backend answers some resources with {results, page, total_pages} and
// others with a bare array; callers above this boundary never branch
// on that.
type Envelope struct {
	Items      []map[string]interface{}
	Page       int
	TotalPages int
	TotalCount int64
}

func normalizeList(raw []byte, q domain.ListQuery) (*Envelope, error) {
	var payload interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, errors.Wrap(err, "decode list response")
	}

	switch v := payload.(type) {
	case map[string]interface{}:
		// some endpoints wrap everything in a data object
		if d, ok := v["data"].(map[string]interface{}); ok {
			v = d
		}
		if res, ok := v["results"].([]interface{}); ok {
			return pagedEnvelope(res, v, q), nil
		}
		if res, ok := v["data"].([]interface{}); ok {
			return slicedEnvelope(res, q), nil
		}
		return nil, errors.New("unrecognized list response shape")
	case []interface{}:
		return slicedEnvelope(v, q), nil
	default:
		return nil, errors.New("unrecognized list response shape")
	}
}

// pagedEnvelope trusts the server's pagination fields, deriving
// total_pages from the count when the server omits it.
func pagedEnvelope(res []interface{}, meta map[string]interface{}, q domain.ListQuery) *Envelope {
	env := &Envelope{
		Items:      toMaps(res),
		Page:       cast.ToInt(meta["page"]),
		TotalPages: cast.ToInt(meta["total_pages"]),
		TotalCount: cast.ToInt64(meta["count"]),
	}
	if env.TotalCount == 0 {
		env.TotalCount = cast.ToInt64(meta["total"])
	}
	if env.Page == 0 {
		env.Page = q.Page
	}
	if env.TotalPages == 0 {
		switch {
		case env.TotalCount > 0 && q.PageSize > 0:
			env.TotalPages = int((env.TotalCount + int64(q.PageSize) - 1) / int64(q.PageSize))
		case len(env.Items) > 0:
			env.TotalPages = 1
		}
	}
	return env
}

// slicedEnvelope paginates an unpaged array client-side so the caller
// still sees one page at a time.
func slicedEnvelope(res []interface{}, q domain.ListQuery) *Envelope {
	items := toMaps(res)
	total := len(items)
	pageSize := q.PageSize
	if pageSize <= 0 {
		pageSize = total
	}
	env := &Envelope{
		Page:       q.Page,
		TotalCount: int64(total),
	}
	if total == 0 || pageSize == 0 {
		return env
	}
	env.TotalPages = (total + pageSize - 1) / pageSize
	start := (q.Page - 1) * pageSize
	if start < 0 {
		start = 0
	}
	if start >= total {
		return env
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	env.Items = items[start:end]
	return env
}

func toMaps(res []interface{}) []map[string]interface{} {
	items := make([]map[string]interface{}, 0, len(res))
	for _, it := range res {
		if m, ok := it.(map[string]interface{}); ok {
			items = append(items, m)
		}
	}
	return items
}

// record unwraps a single-record mutation response
func record(raw []byte) (map[string]interface{}, error) {
	if len(raw) == 0 {
		return map[string]interface{}{}, nil
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, errors.Wrap(err, "decode record response")
	}
	if d, ok := payload["data"].(map[string]interface{}); ok {
		return d, nil
	}
	return payload, nil
}

// serverMessage extracts the human-readable message a backend error
// body carries, if any.
func serverMessage(payload map[string]interface{}) string {
	for _, key := range []string{"detail", "message", "error"} {
		if v, ok := payload[key]; ok {
			if s := cast.ToString(v); s != "" {
				return s
			}
		}
	}
	return ""
}

// fieldErrors collects DRF-style field error lists: {"name_uz": ["required"]}
func fieldErrors(payload map[string]interface{}) map[string]string {
	fields := make(map[string]string)
	for k, v := range payload {
		if k == "detail" || k == "message" || k == "error" {
			continue
		}
		switch t := v.(type) {
		case []interface{}:
			if len(t) > 0 {
				fields[k] = cast.ToString(t[0])
			}
		case string:
			fields[k] = t
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}
