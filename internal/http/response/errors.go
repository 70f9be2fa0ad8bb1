package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	types "github.com/yungbote/catalog-backend/internal/domain/catalog"
)

// RespondCatalogError writes err with the HTTP status matching its catalog code.
// Uncoded errors are reported as internal failures.
func RespondCatalogError(c *gin.Context, err error) {
	code := types.CodeOf(err)
	if code == "" {
		RespondError(c, http.StatusInternalServerError, "internal_error", err)
		return
	}
	RespondError(c, statusFor(code), string(code), err)
}

func statusFor(code types.ErrorCode) int {
	switch code {
	case types.CodeValidation:
		return http.StatusBadRequest
	case types.CodeNotFound:
		return http.StatusNotFound
	case types.CodeConflict:
		return http.StatusConflict
	case types.CodeReferentialViolation:
		return http.StatusUnprocessableEntity
	case types.CodeRetryable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
