package tasktrack

import (
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-router"
)

// RouteRegistrar captures the router methods controllers need.
type RouteRegistrar interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Put(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Delete(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}

// RespondError translates business errors into JSON responses. Rich errors
// map by category; record-not-found from the repositories maps to 404;
// anything else is a 500 with no internal detail leaked.
func RespondError(ctx router.Context, err error) error {
	if repository.IsRecordNotFound(err) {
		return ctx.JSON(router.StatusNotFound, map[string]string{
			"error": "Not Found",
		})
	}

	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return ctx.JSON(router.StatusInternalServerError, map[string]string{
			"error": "Internal Server Error",
		})
	}

	status := statusForCategory(richErr.Category)
	body := map[string]string{
		"error":   httpErrorTitle(status),
		"message": richErr.Message,
	}

	return ctx.JSON(status, body)
}

func statusForCategory(category errors.Category) int {
	switch category {
	case errors.CategoryAuth:
		return router.StatusUnauthorized
	case errors.CategoryAuthz:
		return router.StatusForbidden
	case errors.CategoryNotFound:
		return router.StatusNotFound
	case errors.CategoryConflict:
		return router.StatusConflict
	case errors.CategoryValidation, errors.CategoryBadInput:
		return router.StatusBadRequest
	default:
		return router.StatusInternalServerError
	}
}

func httpErrorTitle(status int) string {
	switch status {
	case router.StatusUnauthorized:
		return "Unauthorized"
	case router.StatusForbidden:
		return "Access Denied"
	case router.StatusNotFound:
		return "Not Found"
	case router.StatusConflict:
		return "Conflict"
	case router.StatusBadRequest:
		return "Bad Request"
	default:
		return "Internal Server Error"
	}
}
