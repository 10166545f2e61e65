package middleware

import (
	"net/http"

	"pizza-franchise-api/apperr"

	"github.com/gin-gonic/gin"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Code      apperr.Kind `json:"code"`
	Message   string      `json:"message"`
	ReportURL string      `json:"reportUrl,omitempty"`
	Retryable bool        `json:"retryable,omitempty"`
}

const internalMessage = "an internal error occurred"

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindMalformed:
		return http.StatusBadRequest
	case apperr.KindUnauthenticated, apperr.KindExpired, apperr.KindRevoked, apperr.KindUnknownSubject:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindFulfillmentFailure:
		return http.StatusBadGateway
	case apperr.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// WriteError aborts the request with the error's status and body. Internal
// details never reach the caller; they are attached to the gin context for
// the request logger.
func WriteError(c *gin.Context, err error) {
	writeError(c, err, false)
}

// WriteAuthError is WriteError for credential failures: a malformed token
// is 401, not 400.
func WriteAuthError(c *gin.Context, err error) {
	writeError(c, err, true)
}

func writeError(c *gin.Context, err error, authPath bool) {
	e, ok := apperr.As(err)
	if !ok {
		e = apperr.Wrap(apperr.KindInternal, err, "unexpected error")
	}
	status := StatusFor(e.Kind)
	if authPath && e.Kind == apperr.KindMalformed {
		status = http.StatusUnauthorized
	}

	body := ErrorBody{
		Code:      e.Kind,
		Message:   e.Detail,
		ReportURL: e.ReportURL,
		Retryable: e.Retryable,
	}
	if e.Kind == apperr.KindInternal {
		body.Message = internalMessage
	}
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	if e.Kind == apperr.KindUnavailable {
		c.Header("Retry-After", "1")
	}
	c.AbortWithStatusJSON(status, body)
}
