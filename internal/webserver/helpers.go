package webserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bozorplus/bozoradmin/internal/domain"
)

// ok wraps a successful payload in the standard response envelope
func ok(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"code": 0,
		"data": data,
	})
}

// fail emits a structured error response
func fail(c echo.Context, status int, code, message string, detail interface{}) error {
	return c.JSON(status, map[string]interface{}{
		"code":    code,
		"message": message,
		"detail":  detail,
	})
}

// paged wraps a page of rows with its pagination metadata
func paged(c echo.Context, rows interface{}, page, totalPages int, totalCount int64) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"code":        0,
		"data":        rows,
		"page":        page,
		"total_pages": totalPages,
		"total_count": totalCount,
	})
}

// failFrom maps a backend error onto the matching HTTP response,
// preserving field errors on validation failures.
func failFrom(c echo.Context, err error) error {
	var apiErr *domain.APIError
	if !domain.AsAPIError(err, &apiErr) {
		return fail(c, http.StatusBadGateway, "BACKEND_ERROR", err.Error(), nil)
	}
	switch apiErr.Kind {
	case domain.KindAuth:
		return fail(c, http.StatusUnauthorized, "AUTH_ERROR", apiErr.Message, nil)
	case domain.KindNotFound:
		return fail(c, http.StatusNotFound, "NOT_FOUND", apiErr.Message, nil)
	case domain.KindValidation:
		return fail(c, http.StatusBadRequest, "VALIDATION_ERROR", apiErr.Message, apiErr.Fields)
	case domain.KindNetwork:
		return fail(c, http.StatusBadGateway, "NETWORK_ERROR", apiErr.Message, nil)
	default:
		return fail(c, http.StatusBadGateway, "BACKEND_ERROR", apiErr.Message, nil)
	}
}
