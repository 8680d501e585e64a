package api

import (
	"embed"
	"log/slog"

	"github.com/gin-contrib/static"
	"github.com/gin-gonic/gin"
)

// UIPrefix is where the embedded UI is served. "/" itself belongs to the
// domain listing endpoint.
const UIPrefix = "/ui"

// Embedded UI assets.
//
//go:embed ui/*
var embeddedUI embed.FS

func getEmbedFs() (static.ServeFileSystem, error) {
	return static.EmbedFolder(embeddedUI, "ui")
}

// MountUI serves the embedded UI under UIPrefix. A missing asset tree is
// logged and the UI is skipped; the JSON endpoints keep working.
func MountUI(r *gin.Engine, logger *slog.Logger) {
	uiFS, err := getEmbedFs()
	if err != nil {
		if logger != nil {
			logger.Error("failed to load embedded UI", "err", err)
		}
		return
	}
	r.Use(static.Serve(UIPrefix, uiFS))
}
