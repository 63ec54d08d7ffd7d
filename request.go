package venom

import (
	"sort"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
)

type Method string

const (
	MethodGet  Method = fasthttp.MethodGet
	MethodPost Method = fasthttp.MethodPost
)

const formContentType = "application/x-www-form-urlencoded"

func (m Method) valid() bool {
	return m == MethodGet || m == MethodPost
}

// Request describes a single HTTP call for the engine to schedule. Once
// yielded it belongs to the engine.
type Request struct {
	ID       string
	Method   Method
	URL      string
	Body     []byte
	Headers  map[string]string
	Cookies  map[string]string
	Callback Callback
	// Extractor, when set, becomes the response's own extraction capability.
	Extractor Extractor
}

type RequestOption func(req *Request)

func WithRequestBody(body []byte) RequestOption {
	return func(req *Request) {
		req.Body = body
	}
}

func WithRequestHeaders(headers map[string]string) RequestOption {
	return func(req *Request) {
		for k, v := range headers {
			req.Headers[k] = v
		}
	}
}

func WithRequestCookies(cookies map[string]string) RequestOption {
	return func(req *Request) {
		for k, v := range cookies {
			req.Cookies[k] = v
		}
	}
}

func WithCallback(cb Callback) RequestOption {
	return func(req *Request) {
		req.Callback = cb
	}
}

func WithExtractor(e Extractor) RequestOption {
	return func(req *Request) {
		req.Extractor = e
	}
}

func NewRequest(method Method, url string, opts ...RequestOption) (*Request, error) {
	if !method.valid() {
		return nil, newArgumentError("http_method", "method %q is not allowed", method)
	}
	if url == "" {
		return nil, newArgumentError("request_url", "url is required")
	}

	req := &Request{
		ID:      uuid.NewString(),
		Method:  method,
		URL:     url,
		Headers: map[string]string{},
		Cookies: map[string]string{},
	}
	for _, opt := range opts {
		opt(req)
	}

	return req, nil
}

// makeURL appends payload to the query string of rawURL.
func makeURL(rawURL string, payload map[string]string) (string, error) {
	if len(payload) == 0 {
		return rawURL, nil
	}

	uri := fasthttp.AcquireURI()
	defer fasthttp.ReleaseURI(uri)
	uri.DisablePathNormalizing = true

	if err := uri.Parse(nil, []byte(rawURL)); err != nil {
		return "", newArgumentError("request_url", "cannot parse %q: %v", rawURL, err)
	}

	args := uri.QueryArgs()
	for _, k := range sortedKeys(payload) {
		args.Add(k, payload[k])
	}

	return uri.String(), nil
}

// encodeForm returns payload as an application/x-www-form-urlencoded body.
func encodeForm(payload map[string]string) []byte {
	args := fasthttp.AcquireArgs()
	defer fasthttp.ReleaseArgs(args)

	for _, k := range sortedKeys(payload) {
		args.Add(k, payload[k])
	}

	return append([]byte(nil), args.QueryString()...)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// toFastHTTP copies the descriptor onto a fasthttp request.
func (req *Request) toFastHTTP(dst *fasthttp.Request) {
	dst.SetRequestURI(req.URL)
	dst.Header.SetMethod(string(req.Method))
	for k, v := range req.Headers {
		dst.Header.Set(k, v)
	}
	for k, v := range req.Cookies {
		dst.Header.SetCookie(k, v)
	}
	if len(req.Body) > 0 {
		dst.SetBody(req.Body)
	}
}
