package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/routemill-backend/internal/domain/apperr"
)

// StatusFor maps an error code to its HTTP status.
func StatusFor(code apperr.Code) int {
	switch code {
	case apperr.CodeValidation:
		return http.StatusBadRequest
	case apperr.CodeNotFound:
		return http.StatusNotFound
	case apperr.CodeConflict:
		return http.StatusConflict
	case apperr.CodeTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// RespondAppError writes err with the status and code it carries. Untagged
// errors become internal.
func RespondAppError(c *gin.Context, err error) {
	code := apperr.CodeOf(err)
	if code == "" {
		code = apperr.CodeInternal
	}
	_ = c.Error(err)
	RespondError(c, StatusFor(code), string(code), err)
}
