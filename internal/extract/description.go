package extract

import (
	"encoding/json"
	"strings"

	"golang.org/x/net/html"
)

// descriptionLanguages is the preference order for multilingual blobs.
// French first: the corpus is overwhelmingly French topo text.
var descriptionLanguages = [...]string{"fr", "en", "it"}

// PickDescription recovers usable text from a route description column.
// Descriptions are usually JSON objects keyed by language code; a bare JSON
// string decodes to itself; anything undecodable is returned as-is so the
// pipeline keeps moving with whatever the row holds.
func PickDescription(blob []byte) string {
	trimmed := strings.TrimSpace(string(blob))
	if trimmed == "" || trimmed == "null" {
		return ""
	}

	var byLang map[string]string
	if err := json.Unmarshal([]byte(trimmed), &byLang); err == nil {
		for _, lang := range descriptionLanguages {
			if text := strings.TrimSpace(byLang[lang]); text != "" {
				return text
			}
		}
		return ""
	}

	var plain string
	if err := json.Unmarshal([]byte(trimmed), &plain); err == nil {
		return strings.TrimSpace(plain)
	}

	return trimmed
}

// StripMarkup flattens HTML in a description to its visible text. Topo
// editors paste rich text; grade tokens survive but tags would waste
// classifier tokens and can split words oddly. Plain text passes through
// untouched so whitespace in hand-written descriptions stays intact.
func StripMarkup(text string) string {
	if !strings.Contains(text, "<") {
		return text
	}

	doc, err := html.Parse(strings.NewReader(text))
	if err != nil {
		return text
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			}
		}

		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				if buf.Len() > 0 {
					buf.WriteString(" ")
				}
				buf.WriteString(t)
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(doc)
	return buf.String()
}
