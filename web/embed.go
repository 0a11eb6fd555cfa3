package web

import (
	"embed"
	"io/fs"
)

// StaticFiles embeds the landing page into the Go binary so the service
// serves its frontend without external files.
//
//go:embed all:static
var staticFS embed.FS

// FS returns the embedded filesystem containing the static files.
func FS() (fs.FS, error) {
	// Strip the "static" prefix to serve files from root
	return fs.Sub(staticFS, "static")
}
