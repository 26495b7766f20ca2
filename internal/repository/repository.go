package repository

import (
	"context"

	"github.com/guonaihong/gout"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/bozorplus/bozoradmin/internal/domain"
	"github.com/bozorplus/bozoradmin/internal/restclient"
)

// Spec is the per-resource configuration driving the generic engine.
// One Spec replaces the per-screen copy-paste of the original
// dashboard: endpoint path, transport shape, form field rules and the
// DTO codec all live here.
type Spec[T any] struct {
	// Path is the resource segment in backend URLs ("product", "unity")
	Path string

	// ID extracts the stable identifier from a record
	ID func(T) string

	// Multipart marks resources whose mutations carry an image upload
	Multipart bool

	// ImageField names the draft field holding the upload, satisfied by
	// an attached file rather than a text value. Omitting the file on
	// update leaves the stored image untouched.
	ImageField string

	// Required lists draft fields that must be non-empty on submit
	Required []string

	// Numeric lists draft fields validated as decimal input
	Numeric []string

	// Defaults builds the draft for a brand-new record
	Defaults func() map[string]string

	// Draft copies an existing record field-by-field into a draft
	Draft func(T) map[string]string

	// Decode maps a wire DTO into the UI-facing record
	Decode func(map[string]interface{}) (T, error)

	// Encode serializes a draft into wire field names and types. Image
	// uploads are excluded; they travel as multipart files.
	Encode func(draft map[string]string) map[string]interface{}
}

// Repository performs the CRUD and list calls for one resource type
type Repository[T any] struct {
	api  *restclient.Client
	spec Spec[T]
}

// New creates a repository from its per-resource spec
func New[T any](api *restclient.Client, spec Spec[T]) *Repository[T] {
	return &Repository[T]{api: api, spec: spec}
}

// Spec exposes the resource configuration (used by form controllers)
func (r *Repository[T]) Spec() Spec[T] { return r.spec }

// Path returns the backend resource segment
func (r *Repository[T]) Path() string { return r.spec.Path }

// List fetches one page and decodes every row. Rows that fail to
// decode are dropped with a warning rather than failing the page.
func (r *Repository[T]) List(ctx context.Context, q domain.ListQuery) (*domain.Page[T], error) {
	env, err := r.api.List(ctx, r.spec.Path, q)
	if err != nil {
		return nil, err
	}
	page := &domain.Page[T]{
		Items:       make([]T, 0, len(env.Items)),
		CurrentPage: env.Page,
		TotalPages:  env.TotalPages,
		TotalCount:  env.TotalCount,
	}
	for _, raw := range env.Items {
		rec, err := r.spec.Decode(raw)
		if err != nil {
			zap.L().Warn("dropping undecodable row",
				zap.String("resource", r.spec.Path),
				zap.Error(err),
			)
			continue
		}
		page.Items = append(page.Items, rec)
	}
	return page, nil
}

// Create sends the draft to the create endpoint and returns the
// server-assigned record.
func (r *Repository[T]) Create(ctx context.Context, body map[string]interface{}, files map[string]string) (T, error) {
	var zero T
	var raw map[string]interface{}
	var err error
	if r.spec.Multipart {
		raw, err = r.api.CreateForm(ctx, r.spec.Path, toForm(body, files))
	} else {
		raw, err = r.api.Create(ctx, r.spec.Path, body)
	}
	if err != nil {
		return zero, err
	}
	return r.spec.Decode(raw)
}

// Update patches only the supplied fields. When no file is attached to
// a multipart resource the image field is omitted entirely, so the
// server keeps the existing image.
func (r *Repository[T]) Update(ctx context.Context, id string, body map[string]interface{}, files map[string]string) (T, error) {
	var zero T
	var raw map[string]interface{}
	var err error
	if r.spec.Multipart {
		raw, err = r.api.UpdateForm(ctx, r.spec.Path, id, toForm(body, files))
	} else {
		raw, err = r.api.Update(ctx, r.spec.Path, id, body)
	}
	if err != nil {
		return zero, err
	}
	return r.spec.Decode(raw)
}

// Delete removes a record. Deleting an already-absent id is a
// non-fatal no-op from the caller's perspective.
func (r *Repository[T]) Delete(ctx context.Context, id string) error {
	err := r.api.Delete(ctx, r.spec.Path, id)
	if err != nil && domain.IsNotFound(err) {
		zap.L().Info("delete of missing record ignored",
			zap.String("resource", r.spec.Path),
			zap.String("id", id),
		)
		return nil
	}
	return err
}

// toForm flattens a wire body plus file attachments into a multipart
// form.
func toForm(body map[string]interface{}, files map[string]string) gout.H {
	form := gout.H{}
	for k, v := range body {
		form[k] = cast.ToString(v)
	}
	for field, path := range files {
		form[field] = gout.FormFile(path)
	}
	return form
}
