package httpadapter

import (
	"net/http"

	"github.com/MeiZhiYying/classifyDoc/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrBatchTooLarge):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrDuplicateCategory):
		return http.StatusConflict
	case domain.IsKind(err, domain.ErrCategoryNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrFileNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrJobNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
