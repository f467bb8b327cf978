// Package extract turns uploaded files (PDF, HTML, plain text) into plain
// text for chunking. Extraction degrades instead of failing: when the
// layout-aware PDF path breaks, the plain-text path runs and the result is
// marked degraded.
package extract

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	pdflib "github.com/dslipak/pdf"
	"golang.org/x/net/html"
)

// Text extracts plain text from a file body. The second return value
// reports a lower-fidelity fallback extraction.
func Text(data []byte, filename string) (string, bool, error) {
	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".pdf"):
		return pdfText(data)
	case strings.HasSuffix(lower, ".html"), strings.HasSuffix(lower, ".htm"):
		return mainText(string(data)), false, nil
	default:
		return SanitizeUTF8(strings.TrimSpace(string(data))), false, nil
	}
}

// pdfText tries a row-aware extraction first, which keeps payout table rows
// readable, and falls back to the plain text stream.
func pdfText(data []byte) (string, bool, error) {
	r, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", false, fmt.Errorf("open pdf: %w", err)
	}

	if text, err := rowText(r); err == nil && text != "" {
		return text, false, nil
	}

	text, err := plainText(r)
	if err != nil {
		return "", false, fmt.Errorf("pdf text extraction: %w", err)
	}
	if text == "" {
		return "", false, fmt.Errorf("pdf contains no extractable text")
	}
	return text, true, nil
}

func rowText(r *pdflib.Reader) (text string, err error) {
	// The underlying pdf library panics on malformed content streams.
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("pdf row extraction: %v", rec)
		}
	}()

	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, rerr := page.GetTextByRow()
		if rerr != nil {
			return "", rerr
		}
		for _, row := range rows {
			var words []string
			for _, word := range row.Content {
				if w := strings.TrimSpace(word.S); w != "" {
					words = append(words, w)
				}
			}
			if len(words) > 0 {
				b.WriteString(strings.Join(words, " "))
				b.WriteString("\n")
			}
		}
		b.WriteString("\n")
	}
	return SanitizeUTF8(strings.TrimSpace(b.String())), nil
}

func plainText(r *pdflib.Reader) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("pdf plain extraction: %v", rec)
		}
	}()

	reader, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, reader); err != nil {
		return "", err
	}
	return SanitizeUTF8(strings.TrimSpace(buf.String())), nil
}

// mainText extracts the visible text of an HTML document, skipping script
// and style subtrees.
func mainText(htmlStr string) string {
	doc, err := html.Parse(strings.NewReader(htmlStr))
	if err != nil {
		return ""
	}

	var b strings.Builder
	var walk func(*html.Node, bool)

	walk = func(n *html.Node, skip bool) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript":
				skip = true
			}
		}

		if n.Type == html.TextNode && !skip {
			t := strings.TrimSpace(n.Data)
			if t != "" {
				b.WriteString(t)
				b.WriteString("\n")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, skip)
		}
	}
	walk(doc, false)

	lines := strings.Split(b.String(), "\n")
	var filtered []string
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if len(l) > 1 {
			filtered = append(filtered, l)
		}
	}
	return SanitizeUTF8(strings.Join(filtered, "\n"))
}

// SanitizeUTF8 drops invalid UTF-8 bytes (evita erro 22021 no Postgres).
func SanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		if r == utf8.RuneError && size == 1 {
			s = s[1:]
			continue
		}
		b.WriteRune(r)
		s = s[size:]
	}
	return b.String()
}
