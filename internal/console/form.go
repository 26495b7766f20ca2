package console

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/asaskevich/EventBus"

	"github.com/bozorplus/bozoradmin/internal/repository"
)

// Saver is what a form controller needs from a repository
type Saver[T any] interface {
	Create(ctx context.Context, body map[string]interface{}, files map[string]string) (T, error)
	Update(ctx context.Context, id string, body map[string]interface{}, files map[string]string) (T, error)
}

// FormController manages the lifecycle of one create-or-edit draft.
// The draft is owned exclusively by the controller while the form is
// open and discarded, never persisted, on cancel.
type FormController[T any] struct {
	spec  repository.Spec[T]
	saver Saver[T]
	bus   EventBus.Bus

	mu        sync.Mutex
	open      bool
	editingID string
	draft     map[string]string
	files     map[string]string
}

// NewForm creates a form controller from a repository
func NewForm[T any](repo *repository.Repository[T], bus EventBus.Bus) *FormController[T] {
	return NewFormWith[T](repo, repo.Spec(), bus)
}

// NewFormWith creates a form controller with an explicit saver, used
// by tests that fake the repository.
func NewFormWith[T any](saver Saver[T], spec repository.Spec[T], bus EventBus.Bus) *FormController[T] {
	return &FormController[T]{spec: spec, saver: saver, bus: bus}
}

// Open starts editing. A non-nil record initializes the draft as a
// field-by-field copy; nil starts a new record from the resource
// defaults. Opening over a dirty draft discards it unconditionally.
func (f *FormController[T]) Open(existing *T) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.open = true
	f.files = map[string]string{}
	if existing == nil {
		f.editingID = ""
		f.draft = f.spec.Defaults()
		return
	}
	f.editingID = f.spec.ID(*existing)
	f.draft = f.spec.Draft(*existing)
}

// UpdateField mutates one draft field locally. No validation happens
// here; that is deferred to Submit.
func (f *FormController[T]) UpdateField(name, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.open {
		return
	}
	f.draft[name] = value
}

// AttachFile stages an upload for an image field
func (f *FormController[T]) AttachFile(field, path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.open {
		return
	}
	f.files[field] = path
}

// Submit validates the draft and sends it. Validation failures return
// field errors and perform no network call. On server success the form
// closes, the draft is cleared and a form-saved event fires; on server
// failure the form stays open with the draft intact so the user can
// retry.
func (f *FormController[T]) Submit(ctx context.Context) (map[string]string, error) {
	f.mu.Lock()
	if !f.open {
		f.mu.Unlock()
		return nil, nil
	}

	fieldErrs := f.validateLocked()
	if len(fieldErrs) > 0 {
		f.mu.Unlock()
		return fieldErrs, nil
	}

	body := f.spec.Encode(f.draft)
	files := make(map[string]string, len(f.files))
	for k, v := range f.files {
		files[k] = v
	}
	id := f.editingID
	f.mu.Unlock()

	var err error
	if id == "" {
		_, err = f.saver.Create(ctx, body, files)
	} else {
		_, err = f.saver.Update(ctx, id, body, files)
	}
	if err != nil {
		// keep the draft for retry
		return nil, err
	}

	f.mu.Lock()
	f.reset()
	f.mu.Unlock()
	if f.bus != nil {
		f.bus.Publish(TopicFormSaved, f.spec.Path)
	}
	return nil, nil
}

// validateLocked checks required fields and normalizes numeric input.
// Comma decimal separators are rewritten to periods before transport.
func (f *FormController[T]) validateLocked() map[string]string {
	errs := map[string]string{}
	for _, field := range f.spec.Required {
		if strings.TrimSpace(f.draft[field]) != "" {
			continue
		}
		if field == f.spec.ImageField {
			// image satisfied by an attached file, and optional when
			// editing an existing record
			if f.files[field] != "" || f.editingID != "" {
				continue
			}
		}
		errs[field] = "required"
	}
	for _, field := range f.spec.Numeric {
		v := strings.TrimSpace(f.draft[field])
		if v == "" {
			continue
		}
		normalized := NormalizeDecimal(v)
		if _, err := strconv.ParseFloat(normalized, 64); err != nil {
			errs[field] = "invalid number"
			continue
		}
		f.draft[field] = normalized
	}
	return errs
}

// Close discards the draft unconditionally; no server interaction
func (f *FormController[T]) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reset()
}

func (f *FormController[T]) reset() {
	f.open = false
	f.editingID = ""
	f.draft = nil
	f.files = nil
}

// IsOpen reports whether a draft is active
func (f *FormController[T]) IsOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}

// EditingID returns the id under edit, empty for a new record
func (f *FormController[T]) EditingID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.editingID
}

// Draft returns a snapshot copy of the working draft
func (f *FormController[T]) Draft() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]string, len(f.draft))
	for k, v := range f.draft {
		out[k] = v
	}
	return out
}

// NormalizeDecimal rewrites a comma decimal separator to a period
func NormalizeDecimal(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
}
