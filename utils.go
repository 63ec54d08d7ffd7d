package venom

import (
	"regexp"
	"strings"

	"github.com/valyala/fasthttp"
)

func getOrDefault(s *string, def string) string {
	if s == nil || *s == "" {
		return def
	}

	return *s
}

func urlMatcher() func(s string) bool {
	urlPattern := `^(https?|ftp)://[^\s/$.?#].[^\s]*$`
	urlRegex, _ := regexp.Compile(urlPattern)

	return func(s string) bool {
		return urlRegex.MatchString(s)
	}
}

func resolveURL(base, href string) string {
	uri := fasthttp.AcquireURI()
	defer fasthttp.ReleaseURI(uri)

	if err := uri.Parse(nil, []byte(base)); err != nil {
		return href
	}
	uri.Update(href)
	return uri.String()
}

func hostOf(rawURL string) string {
	uri := fasthttp.AcquireURI()
	defer fasthttp.ReleaseURI(uri)

	if err := uri.Parse(nil, []byte(rawURL)); err != nil {
		return ""
	}
	return strings.ToLower(string(uri.Host()))
}
