package venom

import (
	"fmt"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"
)

type Extractor interface {
	Extract(resp *Response) (map[string]interface{}, error)
}

type ExtractorFunc func(resp *Response) (map[string]interface{}, error)

func (f ExtractorFunc) Extract(resp *Response) (map[string]interface{}, error) {
	return f(resp)
}

// SelectorExtractor maps field names to CSS selectors. The first match's text
// is used; "selector@attr" reads an attribute instead. Fields without a match
// are left out.
type SelectorExtractor map[string]string

func (e SelectorExtractor) Extract(resp *Response) (map[string]interface{}, error) {
	doc := resp.Document()
	if doc == nil {
		return nil, fmt.Errorf("response from %s has no document", requestURL(resp))
	}

	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	out := make(map[string]interface{}, len(e))
	for _, field := range fields {
		selector, attr := splitSelector(e[field])
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}

		if attr == "" {
			out[field] = strings.TrimSpace(sel.Text())
			continue
		}
		if v, ok := sel.Attr(attr); ok {
			out[field] = v
		}
	}

	return out, nil
}

// splitSelector splits "selector@attr". An "@" followed by anything but a bare
// attribute name belongs to the selector itself.
func splitSelector(s string) (selector, attr string) {
	i := strings.LastIndex(s, "@")
	if i < 0 || !isAttrName(s[i+1:]) {
		return s, ""
	}
	return s[:i], s[i+1:]
}

func isAttrName(s string) bool {
	return s != "" && !strings.ContainsAny(s, "]\"' \t\n")
}

// SelectAll returns, for every element matching selector, its text or the
// attribute named after "@".
func SelectAll(doc *goquery.Document, selector string) []string {
	sel, attr := splitSelector(selector)
	var values []string
	doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
		if attr == "" {
			values = append(values, strings.TrimSpace(s.Text()))
			return
		}
		if v, ok := s.Attr(attr); ok {
			values = append(values, v)
		}
	})
	return values
}

// JSONExtractor maps field names to gjson paths into the response body.
type JSONExtractor map[string]string

func (e JSONExtractor) Extract(resp *Response) (map[string]interface{}, error) {
	if !gjson.ValidBytes(resp.Body) {
		return nil, fmt.Errorf("response from %s is not valid JSON", requestURL(resp))
	}

	out := make(map[string]interface{}, len(e))
	for field, path := range e {
		result := gjson.GetBytes(resp.Body, path)
		if result.Exists() {
			out[field] = result.Value()
		}
	}
	return out, nil
}

func requestURL(resp *Response) string {
	if resp.Request == nil {
		return "<unknown>"
	}
	return resp.Request.URL
}
