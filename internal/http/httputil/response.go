package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hxuan190/split-swapper/internal/common"
)

// Response is the envelope of every API answer.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
}

func HandleSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

// HandleError writes err with the status and code of its domain failure.
// Errors that are not domain failures become 500s.
func HandleError(c *gin.Context, err error) {
	httpErr := common.HTTPErrorFromDomain(err)
	c.AbortWithStatusJSON(httpErr.StatusCode, Response{
		Success: false,
		Error:   httpErr.Message,
		Code:    httpErr.Code,
	})
}

func HandleBadRequest(c *gin.Context, msg string) {
	HandleError(c, common.HTTPErrorBadRequest(msg))
}

func HandleNotFound(c *gin.Context, msg string) {
	HandleError(c, common.HTTPErrorNotFound(msg))
}
