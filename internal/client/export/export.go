// Package export renders diary entries to a standalone HTML document.
package export

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"sync"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/molo/molo-go/internal/model"
)

var (
	markdownOnce sync.Once
	markdown     goldmark.Markdown
)

// Raw HTML in entries is not rendered; goldmark escapes it by default.
func renderer() goldmark.Markdown {
	markdownOnce.Do(func() {
		markdown = goldmark.New(
			goldmark.WithExtensions(extension.GFM),
		)
	})
	return markdown
}

// RenderEntry converts one entry's markdown content to an HTML fragment.
func RenderEntry(content string) (string, error) {
	var buf bytes.Buffer
	if err := renderer().Convert([]byte(content), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}

// HTML writes entries, in the given order, as one HTML page.
func HTML(w io.Writer, title string, entries []model.Entry) error {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n<meta charset=\"utf-8\">\n<title>%s</title>\n</head>\n<body>\n<h1>%s</h1>\n",
		html.EscapeString(title), html.EscapeString(title))

	for _, e := range entries {
		body, err := RenderEntry(e.Content)
		if err != nil {
			return fmt.Errorf("entry %s: %w", e.ID, err)
		}
		updated := time.UnixMilli(e.UpdatedAt).UTC().Format(time.RFC3339)
		fmt.Fprintf(&buf, "<article id=\"%s\">\n<h2>%s</h2>\n<p><time>%s</time> &middot; updated %s</p>\n%s</article>\n",
			html.EscapeString(e.ID), html.EscapeString(e.Title), html.EscapeString(e.Date), updated, body)
	}

	buf.WriteString("</body>\n</html>\n")
	_, err := w.Write(buf.Bytes())
	return err
}
