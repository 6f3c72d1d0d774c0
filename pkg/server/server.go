// Package server exposes the theme lists over HTTP and lets a caller
// trigger a refresh.
package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UpdateFunc refreshes the stored theme lists.
type UpdateFunc func(ctx context.Context) error

// New builds the router. storageDir is served under /themes, so list
// files, the search index and extracted theme files are all reachable.
func New(update UpdateFunc, storageDir string, log *zap.Logger) *gin.Engine {
	if log == nil {
		log = zap.NewNop()
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "vscode-live-themes server"})
	})

	// Not under /themes: the static catch-all below owns that subtree.
	r.GET("/update", func(c *gin.Context) {
		if err := update(c.Request.Context()); err != nil {
			log.Error("theme update failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Themes updated"})
	})

	r.Static("/themes", storageDir)

	return r
}

// Run serves the router until the listener fails.
func Run(r *gin.Engine, addr string, log *zap.Logger) error {
	log.Info("serving themes", zap.String("addr", addr))
	return r.Run(addr)
}
