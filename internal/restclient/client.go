package restclient

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/guonaihong/gout"
	"github.com/guonaihong/gout/dataflow"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/bozorplus/bozoradmin/internal/domain"
	"github.com/bozorplus/bozoradmin/pkg/metrics"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// TokenSource supplies the bearer credential attached to every request.
// Controllers never read token state directly; the source is injected
// here once at construction.
type TokenSource interface {
	AccessToken() (string, error)
}

// StaticToken is a fixed-token source, used by the gateway passthrough
// and in tests.
type StaticToken string

func (s StaticToken) AccessToken() (string, error) {
	if s == "" {
		return "", domain.ErrNoToken
	}
	return string(s), nil
}

// Client wraps outbound calls to the commerce backend. It owns no
// business logic: headers, envelope normalization and error
// classification only.
type Client struct {
	base    string
	tokens  TokenSource
	locale  func() string
	timeout time.Duration
	node    *snowflake.Node
}

// Option customizes a Client
type Option func(*Client)

// WithLocale sets the Accept-Language supplier
func WithLocale(fn func() string) Option {
	return func(c *Client) { c.locale = fn }
}

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// New creates a backend client rooted at base
func New(base string, tokens TokenSource, opts ...Option) *Client {
	node, err := snowflake.NewNode(1)
	if err != nil {
		zap.S().Warnf("snowflake node init failed: %v", err)
	}
	c := &Client{
		base:    strings.TrimRight(base, "/"),
		tokens:  tokens,
		locale:  func() string { return "uz" },
		timeout: 30 * time.Second,
		node:    node,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) headers() (gout.H, error) {
	tok, err := c.tokens.AccessToken()
	if err != nil {
		return nil, err
	}
	h := gout.H{
		"Authorization":   "Bearer " + tok,
		"Accept-Language": c.locale(),
	}
	if c.node != nil {
		h["X-Request-ID"] = c.node.Generate().String()
	}
	return h, nil
}

// List fetches one page of a resource list. The response is normalized
// regardless of whether the backend returned a paginated envelope or a
// bare array.
func (c *Client) List(ctx context.Context, resource string, q domain.ListQuery) (*Envelope, error) {
	query := gout.H{"page": q.Page, "page_size": q.PageSize}
	if q.Search != "" {
		query["search"] = q.Search
	}
	for k, v := range q.Filters {
		if v != "" {
			query[k] = v
		}
	}
	if q.Sort != "" {
		query["sort"] = q.Sort
		if q.Order != "" {
			query["order"] = q.Order
		}
	}
	body, err := c.do(ctx, http.MethodGet, "/"+resource+"/list/", query, nil, nil)
	if err != nil {
		return nil, err
	}
	return normalizeList(body, q)
}

// Create posts a JSON body to the resource create endpoint
func (c *Client) Create(ctx context.Context, resource string, body map[string]interface{}) (map[string]interface{}, error) {
	raw, err := c.do(ctx, http.MethodPost, "/"+resource+"/create/", nil, body, nil)
	if err != nil {
		return nil, err
	}
	return record(raw)
}

// CreateForm posts a multipart body (image-bearing resources)
func (c *Client) CreateForm(ctx context.Context, resource string, form gout.H) (map[string]interface{}, error) {
	raw, err := c.do(ctx, http.MethodPost, "/"+resource+"/create/", nil, nil, form)
	if err != nil {
		return nil, err
	}
	return record(raw)
}

// Update patches a JSON body; only the supplied fields are sent
func (c *Client) Update(ctx context.Context, resource, id string, body map[string]interface{}) (map[string]interface{}, error) {
	raw, err := c.do(ctx, http.MethodPatch, "/"+resource+"/"+id+"/update/", nil, body, nil)
	if err != nil {
		return nil, err
	}
	return record(raw)
}

// UpdateForm patches a multipart body
func (c *Client) UpdateForm(ctx context.Context, resource, id string, form gout.H) (map[string]interface{}, error) {
	raw, err := c.do(ctx, http.MethodPatch, "/"+resource+"/"+id+"/update/", nil, nil, form)
	if err != nil {
		return nil, err
	}
	return record(raw)
}

// Delete removes a record
func (c *Client) Delete(ctx context.Context, resource, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/"+resource+"/"+id+"/delete/", nil, nil, nil)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, query, jsonBody, form gout.H) ([]byte, error) {
	h, err := c.headers()
	if err != nil {
		return nil, err
	}

	url := c.base + path
	var df *dataflow.DataFlow
	switch method {
	case http.MethodGet:
		df = gout.GET(url)
	case http.MethodPost:
		df = gout.POST(url)
	case http.MethodPatch:
		df = gout.PATCH(url)
	case http.MethodDelete:
		df = gout.DELETE(url)
	default:
		return nil, errors.Errorf("unsupported method %s", method)
	}

	df = df.WithContext(ctx).SetHeader(h).SetTimeout(c.timeout)
	if query != nil {
		df = df.SetQuery(query)
	}
	if jsonBody != nil {
		df = df.SetJSON(jsonBody)
	}
	if form != nil {
		df = df.SetForm(form)
	}

	var body []byte
	var code int
	start := time.Now()
	err = df.BindBody(&body).Code(&code).Do()
	resource := resourceOf(path)
	metrics.RecordAPIRequest(resource, time.Since(start), err != nil || code >= 400)

	if err != nil {
		zap.L().Warn("backend request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, &domain.APIError{Kind: domain.KindNetwork, Message: err.Error()}
	}
	if code >= 400 {
		return nil, classify(code, body)
	}
	return body, nil
}

// classify maps a non-2xx response to the error taxonomy, keeping the
// server's own message when one is present.
func classify(status int, body []byte) error {
	var payload map[string]interface{}
	_ = json.Unmarshal(body, &payload)
	message := serverMessage(payload)

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return domain.NewAPIError(domain.KindAuth, status, message)
	case status == http.StatusNotFound:
		return domain.NewAPIError(domain.KindNotFound, status, message)
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		e := domain.NewAPIError(domain.KindValidation, status, message)
		e.Fields = fieldErrors(payload)
		return e
	default:
		return domain.NewAPIError(domain.KindServer, status, message)
	}
}

func resourceOf(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) == 0 {
		return path
	}
	return parts[0]
}
