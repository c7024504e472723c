//go:build go1.16
// +build go1.16

package datafiles

import (
	"embed"
	"html/template"

	"github.com/dustin/go-humanize"
)

//go:embed index.html sprite.html
var htmlTemplatesEmbed embed.FS

var funcs = template.FuncMap{
	"bytes": func(n int64) string { return humanize.Bytes(uint64(n)) },
	"comma": func(n int) string { return humanize.Comma(int64(n)) },
	"url":   func(s string) template.URL { return template.URL(s) },
}

// Templates parses the HTML templates of the sprite browser. They are named
// after their files: "index.html" and "sprite.html".
func Templates() (*template.Template, error) {
	return template.New("").Funcs(funcs).ParseFS(htmlTemplatesEmbed, "*.html")
}
