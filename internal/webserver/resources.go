package webserver

import (
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/asaskevich/EventBus"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/bozorplus/bozoradmin/internal/console"
	"github.com/bozorplus/bozoradmin/internal/domain"
	"github.com/bozorplus/bozoradmin/internal/repository"
)

// query keys consumed by pagination itself; everything else is a
// backend filter dimension passed through untouched.
var reservedParams = map[string]bool{
	"page": true, "page_size": true, "search": true,
	"sort": true, "order": true,
}

// registerResource mounts the standard CRUD surface for one resource
// under its backend path segment. Successful mutations fire on the
// bus so list consumers bound to the resource refresh themselves.
func registerResource[T any](g *echo.Group, repo *repository.Repository[T], pageSize int, bus EventBus.Bus) {
	base := "/" + repo.Path()
	g.GET(base, listHandler(repo, pageSize))
	g.POST(base, createHandler(repo, bus))
	g.PATCH(base+"/:id", updateHandler(repo, bus))
	g.DELETE(base+"/:id", deleteHandler(repo, bus))
}

func listHandler[T any](repo *repository.Repository[T], defaultPageSize int) echo.HandlerFunc {
	return func(c echo.Context) error {
		q := domain.ListQuery{
			Page:     1,
			PageSize: defaultPageSize,
			Search:   strings.TrimSpace(c.QueryParam("search")),
			Filters:  map[string]string{},
			Sort:     c.QueryParam("sort"),
			Order:    c.QueryParam("order"),
		}
		if p, err := strconv.Atoi(c.QueryParam("page")); err == nil && p > 0 {
			q.Page = p
		}
		if ps, err := strconv.Atoi(c.QueryParam("page_size")); err == nil && ps > 0 && ps <= 500 {
			q.PageSize = ps
		}
		for key, vals := range c.QueryParams() {
			if reservedParams[key] || len(vals) == 0 || vals[0] == "" {
				continue
			}
			q.Filters[key] = vals[0]
		}

		page, err := repo.List(c.Request().Context(), q)
		if err != nil {
			return failFrom(c, err)
		}
		return paged(c, page.Items, page.CurrentPage, page.TotalPages, page.TotalCount)
	}
}

func createHandler[T any](repo *repository.Repository[T], bus EventBus.Bus) echo.HandlerFunc {
	return func(c echo.Context) error {
		body, files, cleanup, err := parseMutation(c)
		if err != nil {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		}
		defer cleanup()

		rec, err := repo.Create(c.Request().Context(), body, files)
		if err != nil {
			return failFrom(c, err)
		}
		publish(bus, console.TopicFormSaved, repo.Path())
		return ok(c, rec)
	}
}

func updateHandler[T any](repo *repository.Repository[T], bus EventBus.Bus) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Param("id")
		if id == "" {
			return fail(c, http.StatusBadRequest, "INVALID_ID", "missing record id", nil)
		}
		body, files, cleanup, err := parseMutation(c)
		if err != nil {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		}
		defer cleanup()

		rec, err := repo.Update(c.Request().Context(), id, body, files)
		if err != nil {
			return failFrom(c, err)
		}
		publish(bus, console.TopicFormSaved, repo.Path())
		return ok(c, rec)
	}
}

func deleteHandler[T any](repo *repository.Repository[T], bus EventBus.Bus) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Param("id")
		if id == "" {
			return fail(c, http.StatusBadRequest, "INVALID_ID", "missing record id", nil)
		}
		if err := repo.Delete(c.Request().Context(), id); err != nil {
			return failFrom(c, err)
		}
		publish(bus, console.TopicDeleted, repo.Path())
		return ok(c, map[string]interface{}{"id": id})
	}
}

func publish(bus EventBus.Bus, topic, resource string) {
	if bus != nil {
		bus.Publish(topic, resource)
	}
}

// parseMutation reads either a JSON body or a multipart form. Uploaded
// files are staged to temp paths for the repository; cleanup removes
// them after the backend call.
func parseMutation(c echo.Context) (map[string]interface{}, map[string]string, func(), error) {
	noop := func() {}
	ct := c.Request().Header.Get(echo.HeaderContentType)

	if !strings.HasPrefix(ct, echo.MIMEMultipartForm) {
		body := map[string]interface{}{}
		if err := c.Bind(&body); err != nil {
			return nil, nil, noop, errors.Wrap(err, "parse body")
		}
		return body, nil, noop, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return nil, nil, noop, errors.Wrap(err, "parse form")
	}
	body := map[string]interface{}{}
	for key, vals := range form.Value {
		if len(vals) > 0 {
			body[key] = vals[0]
		}
	}

	files := map[string]string{}
	var staged []string
	for field, headers := range form.File {
		if len(headers) == 0 {
			continue
		}
		path, err := stageUpload(headers[0])
		if err != nil {
			for _, p := range staged {
				os.Remove(p)
			}
			return nil, nil, noop, err
		}
		staged = append(staged, path)
		files[field] = path
	}
	cleanup := func() {
		for _, p := range staged {
			os.Remove(p)
		}
	}
	return body, files, cleanup, nil
}

func stageUpload(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", errors.Wrap(err, "open upload")
	}
	defer src.Close()

	dst, err := os.CreateTemp("", "upload-*"+filepath.Ext(fh.Filename))
	if err != nil {
		return "", errors.Wrap(err, "stage upload")
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(dst.Name())
		return "", errors.Wrap(err, "write upload")
	}
	return dst.Name(), nil
}
