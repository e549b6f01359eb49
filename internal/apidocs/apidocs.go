// Package apidocs serves the OpenAPI document and an interactive docs page.
package apidocs

import (
	_ "embed"
	"net/http"

	"github.com/gin-gonic/gin"
)

var (
	//go:embed openapi.json
	openAPI []byte
	//go:embed docs.html
	docsPage []byte
)

// Register mounts GET /docs, GET /openapi.json and the root redirect.
func Register(r gin.IRoutes) {
	r.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusTemporaryRedirect, "/docs")
	})
	r.GET("/docs", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", docsPage)
	})
	r.GET("/openapi.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json", openAPI)
	})
}
