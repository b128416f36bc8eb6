package httpadapter

import (
	"errors"
	"net/http"

	"github.com/kirillkom/invoice-assistant/internal/core/domain"
)

var statusByKind = map[string]int{
	"invalid_input":      http.StatusBadRequest,
	"not_found":          http.StatusNotFound,
	"unsupported_format": http.StatusUnsupportedMediaType,
	"temporary":          http.StatusServiceUnavailable,
}

func mapErrorToHTTPStatus(err error) int {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return http.StatusRequestEntityTooLarge
	}
	if status, ok := statusByKind[domain.KindName(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}
