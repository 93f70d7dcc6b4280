package httputil

import "github.com/gin-gonic/gin"

// IHttpHandler mounts one resource under Root in each route group.
// The admin group resolves the caller wallet before any handler runs.
type IHttpHandler interface {
	Root() string
	SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup)
}
