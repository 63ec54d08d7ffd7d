package venom

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"
)

type Response struct {
	Request    *Request
	StatusCode int
	Header     map[string]string
	Body       []byte

	document *goquery.Document
}

func (r *Response) Document() *goquery.Document {
	return r.document
}

func (r *Response) ContentType() string {
	return r.Header["Content-Type"]
}

// Extract pulls structured data out of the response: through the request's
// Extractor when set, otherwise from a JSON object body. Other bodies yield nil.
func (r *Response) Extract() (map[string]interface{}, error) {
	if r.Request != nil && r.Request.Extractor != nil {
		return r.Request.Extractor.Extract(r)
	}

	if !r.isJSON() {
		return nil, nil
	}

	parsed := gjson.ParseBytes(r.Body)
	if !parsed.IsObject() {
		return nil, nil
	}
	data, _ := parsed.Value().(map[string]interface{})
	return data, nil
}

func (r *Response) isJSON() bool {
	if strings.Contains(r.ContentType(), "json") {
		return true
	}
	body := bytes.TrimSpace(r.Body)
	return len(body) > 0 && body[0] == '{' && gjson.ValidBytes(body)
}

// AbsoluteURL resolves href against the URL of the request that produced r.
func (r *Response) AbsoluteURL(href string) string {
	if r.Request == nil {
		return href
	}
	return resolveURL(r.Request.URL, href)
}
