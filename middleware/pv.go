package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cppla/weightloss/models"
	"github.com/cppla/weightloss/utils"
)

// contentRoutes are the detail endpoints whose reads count as page views.
var contentRoutes = []string{
	"/api/v1/blog/posts/:slug",
	"/api/v1/recipes/:slug",
	"/api/v1/forum/topics/:slug",
	"/api/v1/vip/posts/:slug",
	"/api/v1/challenges/:slug",
}

func isContentRoute(route string) bool {
	for _, r := range contentRoutes {
		if r == route {
			return true
		}
	}
	return false
}

// PageViewRecorder counts successful GETs of content detail routes per
// day and concrete path, e.g. /api/v1/recipes/ovsyanka.
func PageViewRecorder(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Request.Method != http.MethodGet || !isContentRoute(c.FullPath()) {
			return
		}
		if status := c.Writer.Status(); status < 200 || status >= 300 {
			return
		}
		path := strings.TrimSuffix(c.Request.URL.Path, "/")
		if len(path) > 255 {
			return
		}
		if err := models.RecordPageView(db, path, time.Now()); err != nil && utils.Logger != nil {
			utils.Logger.Warn("record page view", zap.String("path", path), zap.Error(err))
		}
	}
}
