package webserver

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/bozorplus/bozoradmin/internal/console"
	"github.com/bozorplus/bozoradmin/internal/export"
)

type statusPayload struct {
	Status string `json:"status"`
}

func (s *Server) updateOrderStatus(c echo.Context) error {
	id := c.Param("id")
	var payload statusPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "unable to parse status", nil)
	}
	order, err := s.deps.Orders.UpdateStatus(c.Request().Context(), id, payload.Status)
	if err != nil {
		return failFrom(c, err)
	}
	publish(s.deps.Bus, console.TopicFormSaved, s.deps.Orders.Path())
	return ok(c, order)
}

type exportPayload struct {
	From   string            `json:"from"`
	To     string            `json:"to"`
	Filter map[string]string `json:"filter"`
}

// exportGrouped fetches every order matching the filter and writes one
// workbook per customer. Responds with the produced file names; an
// empty match set produces none.
func (s *Server) exportGrouped(c echo.Context) error {
	var payload exportPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "unable to parse export request", nil)
	}

	ctx := c.Request().Context()
	orders, err := s.deps.Orders.All(ctx, payload.Filter)
	if err != nil {
		return failFrom(c, err)
	}
	if payload.From != "" || payload.To != "" {
		orders, err = export.FilterByDate(orders, payload.From, payload.To)
		if err != nil {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		}
	}

	paths, err := s.deps.Export.ExportGrouped(ctx, orders, payload.From, payload.To)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "EXPORT_ERROR", err.Error(), nil)
	}
	names := make([]string, 0, len(paths))
	for _, p := range paths {
		names = append(names, filepath.Base(p))
	}
	return ok(c, map[string]interface{}{"files": names, "orders": len(orders)})
}

type selectionPayload struct {
	IDs  []string `json:"ids"`
	Name string   `json:"name"`
}

// exportSelection writes the chosen orders into one workbook
func (s *Server) exportSelection(c echo.Context) error {
	var payload selectionPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "unable to parse selection", nil)
	}

	ctx := c.Request().Context()
	all, err := s.deps.Orders.All(ctx, nil)
	if err != nil {
		return failFrom(c, err)
	}
	wanted := map[string]bool{}
	for _, id := range payload.IDs {
		wanted[id] = true
	}
	selected := all[:0:0]
	for _, o := range all {
		if wanted[o.ID] {
			selected = append(selected, o)
		}
	}

	path, err := s.deps.Export.ExportSelection(ctx, selected, payload.Name)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "EXPORT_ERROR", err.Error(), nil)
	}
	if path == "" {
		return ok(c, map[string]interface{}{"files": []string{}, "orders": 0})
	}
	return ok(c, map[string]interface{}{
		"files":  []string{filepath.Base(path)},
		"orders": len(selected),
	})
}

// exportCSV writes the filtered order set as one CSV file
func (s *Server) exportCSV(c echo.Context) error {
	var payload exportPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "unable to parse export request", nil)
	}

	ctx := c.Request().Context()
	orders, err := s.deps.Orders.All(ctx, payload.Filter)
	if err != nil {
		return failFrom(c, err)
	}
	if payload.From != "" || payload.To != "" {
		orders, err = export.FilterByDate(orders, payload.From, payload.To)
		if err != nil {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		}
	}

	path, err := s.deps.Export.ExportCSV(ctx, orders, "")
	if err != nil {
		return fail(c, http.StatusInternalServerError, "EXPORT_ERROR", err.Error(), nil)
	}
	if path == "" {
		return ok(c, map[string]interface{}{"files": []string{}, "orders": 0})
	}
	return ok(c, map[string]interface{}{
		"files":  []string{filepath.Base(path)},
		"orders": len(orders),
	})
}

// downloadExport streams a previously produced export file. Only bare
// file names inside the export directory are served.
func (s *Server) downloadExport(c echo.Context) error {
	name := c.QueryParam("file")
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid file name", nil)
	}
	return c.Attachment(filepath.Join(s.deps.Export.Dir(), name), name)
}

// dashboardStats aggregates order KPIs for the dashboard screen
func (s *Server) dashboardStats(c echo.Context) error {
	orders, err := s.deps.Orders.All(c.Request().Context(), nil)
	if err != nil {
		return failFrom(c, err)
	}
	return ok(c, console.OrderStats(orders, 5))
}
