// Package document turns uploaded or downloaded bytes into plain text for
// field extraction.
package document

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"golang.org/x/net/html"

	"github.com/kirillkom/invoice-assistant/internal/core/domain"
)

type kind int

const (
	kindUnknown kind = iota
	kindPDF
	kindHTML
	kindText
	kindImage
)

// Decoder handles PDF, HTML and plain text. Images decode to empty text so
// extraction falls back to filename hints and defaults.
type Decoder struct{}

func NewDecoder() *Decoder {
	return &Decoder{}
}

func (d *Decoder) Decode(ctx context.Context, doc domain.SourceDocument) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(doc.Data) == 0 {
		return "", nil
	}

	switch detect(doc) {
	case kindPDF:
		text, err := pdfText(doc.Data)
		if err != nil {
			return "", fmt.Errorf("decode pdf %s: %w", doc.Filename, err)
		}
		return text, nil
	case kindHTML:
		text, err := htmlText(doc.Data)
		if err != nil {
			return "", fmt.Errorf("decode html %s: %w", doc.Filename, err)
		}
		return text, nil
	case kindText:
		return strings.TrimSpace(string(doc.Data)), nil
	case kindImage:
		return "", nil
	default:
		if utf8.Valid(doc.Data) {
			return strings.TrimSpace(string(doc.Data)), nil
		}
		return "", fmt.Errorf("unsupported binary format: %s", doc.Filename)
	}
}

func detect(doc domain.SourceDocument) kind {
	contentType := strings.ToLower(doc.ContentType)
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = strings.ToLower(http.DetectContentType(doc.Data))
	}
	switch {
	case strings.Contains(contentType, "pdf"), bytes.HasPrefix(doc.Data, []byte("%PDF-")):
		return kindPDF
	case strings.Contains(contentType, "html"):
		return kindHTML
	case strings.HasPrefix(contentType, "image/"):
		return kindImage
	case strings.HasPrefix(contentType, "text/"), strings.Contains(contentType, "json"):
		return kindText
	}

	switch strings.ToLower(filepath.Ext(doc.Filename)) {
	case ".pdf":
		return kindPDF
	case ".html", ".htm":
		return kindHTML
	case ".jpg", ".jpeg", ".png", ".webp":
		return kindImage
	case ".txt", ".csv":
		return kindText
	}
	return kindUnknown
}

func pdfText(data []byte) (text string, err error) {
	// the pdf reader panics on some malformed files
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		for _, row := range rows {
			words := make([]string, 0, len(row.Content))
			for _, word := range row.Content {
				words = append(words, word.S)
			}
			b.WriteString(strings.Join(words, " "))
			b.WriteByte('\n')
		}
	}
	return strings.TrimSpace(b.String()), nil
}

var blockElements = map[string]struct{}{
	"p": {}, "div": {}, "br": {}, "tr": {}, "li": {}, "table": {},
	"h1": {}, "h2": {}, "h3": {}, "h4": {}, "h5": {}, "h6": {},
}

// htmlText keeps visible text and puts block elements on their own lines.
func htmlText(data []byte) (string, error) {
	root, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return "", err
	}

	var lines []string
	var current strings.Builder
	flush := func() {
		if line := strings.Join(strings.Fields(current.String()), " "); line != "" {
			lines = append(lines, line)
		}
		current.Reset()
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "head":
				return
			}
		}
		if n.Type == html.TextNode {
			current.WriteString(n.Data)
			current.WriteByte(' ')
		}
		_, block := blockElements[n.Data]
		if n.Type == html.ElementNode && block {
			flush()
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
		if n.Type == html.ElementNode && block {
			flush()
		}
	}
	walk(root)
	flush()
	return strings.Join(lines, "\n"), nil
}
