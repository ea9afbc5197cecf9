package handler

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// RegisterDashboard serves the built dashboard from dir. Unknown GET paths fall back to
// index.html so client-side routes resolve; other unknown requests get a JSON 404.
func RegisterDashboard(r *gin.Engine, dir string) {
	r.Use(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/assets/") {
			c.Header("Cache-Control", "public, max-age=31536000, immutable")
		}
		c.Next()
	})
	r.Static("/assets", filepath.Join(dir, "assets"))

	index := filepath.Join(dir, "index.html")
	r.NoRoute(func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.JSON(http.StatusNotFound, ErrorBody{Error: "Not found"})
			return
		}
		file := filepath.Join(dir, filepath.Clean("/"+c.Request.URL.Path))
		if info, err := os.Stat(file); err == nil && !info.IsDir() {
			c.File(file)
			return
		}
		indexData, err := os.ReadFile(index)
		if err != nil {
			c.JSON(http.StatusNotFound, ErrorBody{Error: "Not found"})
			return
		}
		c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
		c.Header("Pragma", "no-cache")
		c.Header("Expires", "0")
		c.Data(http.StatusOK, "text/html; charset=utf-8", indexData)
	})
}
