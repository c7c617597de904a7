package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/ologd/internal/common"
	"github.com/gin-gonic/gin"
)

// statusFor maps the directory error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch common.KindOf(err) {
	case common.KindBadRequest:
		return http.StatusBadRequest
	case common.KindNotFound:
		return http.StatusNotFound
	case common.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}
