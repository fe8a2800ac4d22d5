package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/creatorspace/community-api/internal/api/metrics"
	"github.com/creatorspace/community-api/internal/core/domain"
)

const (
	codeRateLimit       = "RateLimitError"
	codePayloadTooLarge = "PayloadTooLargeError"
	codeInternal        = "InternalServerError"
	internalMessage     = "Internal server error"
)

// errorBody is the canonical error envelope for all API errors.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Message string            `json:"message"`
	Code    string            `json:"code"`
	Fields  map[string]string `json:"fields,omitempty"`
	Stack   string            `json:"stack,omitempty"`
}

// statusCodes names echo's own errors (routing, binding, body limit, rate
// limit) with the taxonomy codes.
var statusCodes = map[int]string{
	http.StatusBadRequest:            string(domain.KindValidation),
	http.StatusUnauthorized:          string(domain.KindAuthentication),
	http.StatusForbidden:             string(domain.KindAuthorization),
	http.StatusNotFound:              string(domain.KindNotFound),
	http.StatusMethodNotAllowed:      string(domain.KindNotFound),
	http.StatusConflict:              string(domain.KindConflict),
	http.StatusRequestEntityTooLarge: codePayloadTooLarge,
	http.StatusUnsupportedMediaType:  string(domain.KindValidation),
	http.StatusTooManyRequests:       codeRateLimit,
}

// NewHTTPErrorHandler returns the terminal error formatter. Every error is
// logged with its cause; clients get {"error":{message, code, fields?,
// stack?}} with the stack only when development is true.
func NewHTTPErrorHandler(log zerolog.Logger, development bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		status, body := resolveError(err, development)
		logError(log, c, err, status, body.Error.Code)
		metrics.ErrorsTotal.WithLabelValues(body.Error.Code).Inc()

		// Headers are out; the error is only logged.
		if c.Response().Committed {
			return
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, body)
	}
}

func resolveError(err error, development bool) (int, errorBody) {
	if de, ok := domain.AsError(err); ok {
		d := errorDetail{
			Message: de.Message(),
			Code:    de.Code(),
			Fields:  de.Fields(),
		}
		if development {
			d.Stack = de.Stack()
		}
		return de.StatusCode(), errorBody{Error: d}
	}

	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code, ok := statusCodes[he.Code]
		if !ok {
			code = codeInternal
		}
		d := errorDetail{Message: fmt.Sprint(he.Message), Code: code}
		if he.Code >= http.StatusInternalServerError {
			d.Message = internalMessage
		}
		if development && he.Internal != nil {
			d.Stack = he.Internal.Error()
		}
		return he.Code, errorBody{Error: d}
	}

	d := errorDetail{Message: internalMessage, Code: codeInternal}
	if development {
		d.Stack = fmt.Sprintf("%+v", err)
	}
	return http.StatusInternalServerError, errorBody{Error: d}
}

func logError(log zerolog.Logger, c echo.Context, err error, status int, code string) {
	ev := log.Warn()
	if status >= http.StatusInternalServerError {
		ev = log.Error()
	}
	req := c.Request()
	ev = ev.Err(err).
		Int("status", status).
		Str("code", code).
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
		Bool("committed", c.Response().Committed)

	if de, ok := domain.AsError(err); ok {
		if cause := de.Cause(); cause != nil {
			ev = ev.AnErr("cause", cause)
		}
		if fields := de.Fields(); len(fields) > 0 {
			ev = ev.Interface("fields", fields)
		}
		ev = ev.Str("stack", de.Stack())
	}
	ev.Msg("request failed")
}
