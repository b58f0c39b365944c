package server

import (
	"crypto/rand"
	"embed"
	"encoding/base64"
	"html/template"
)

//go:embed templates/*.html
var pageTemplates embed.FS

const cliAuthTemplate = "cli_auth.html"

// parsePages parses every embedded page; pages are looked up by file name.
func parsePages() (*template.Template, error) {
	return template.New("pages").ParseFS(pageTemplates, "templates/*.html")
}

// randomPassword returns a URL-safe password for the bootstrap admin.
func randomPassword(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
