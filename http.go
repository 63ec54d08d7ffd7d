package venom

// RequestSource supplies the parts of a request. HTTPMixin implements it with
// the configured values; steps override single methods to compute them.
type RequestSource interface {
	GetRequestURL() string
	GetPayload() map[string]string
	GetHeaders() map[string]string
	GetCookies() map[string]string
}

type requestBuilder func(url string, payload map[string]string, opts ...RequestOption) (*Request, error)

var requestBuilders = map[Method]requestBuilder{
	MethodGet:  httpGet,
	MethodPost: httpPost,
}

func httpGet(url string, payload map[string]string, opts ...RequestOption) (*Request, error) {
	fullURL, err := makeURL(url, payload)
	if err != nil {
		return nil, err
	}
	return NewRequest(MethodGet, fullURL, opts...)
}

func httpPost(url string, payload map[string]string, opts ...RequestOption) (*Request, error) {
	opts = append([]RequestOption{
		WithRequestBody(encodeForm(payload)),
		WithRequestHeaders(map[string]string{"Content-Type": formContentType}),
	}, opts...)
	return NewRequest(MethodPost, url, opts...)
}

// HTTPMixin gives a step Dispatch, which turns its configuration into a request.
type HTTPMixin struct {
	HTTPMethod Method            `step:"http_method"`
	RequestURL string            `step:"request_url"`
	Payload    map[string]string `step:"payload"`
	Headers    map[string]string `step:"headers"`
	Cookies    map[string]string `step:"cookies"`

	builder requestBuilder
	source  RequestSource
}

// NewHTTPMixin returns the mixin with its defaults: GET and empty maps.
func NewHTTPMixin() HTTPMixin {
	return HTTPMixin{
		HTTPMethod: MethodGet,
		Payload:    map[string]string{},
		Headers:    map[string]string{},
		Cookies:    map[string]string{},
	}
}

func (m *HTTPMixin) validateHTTP() error {
	builder, ok := requestBuilders[m.HTTPMethod]
	if !ok {
		return newArgumentError("http_method", "method %q is not allowed", m.HTTPMethod)
	}
	m.builder = builder
	return nil
}

func (m *HTTPMixin) bindRequestSource(self interface{}) {
	if src, ok := self.(RequestSource); ok {
		m.source = src
	}
}

// Dispatch builds exactly one request whose response goes to callback.
func (m *HTTPMixin) Dispatch(callback Callback) (*Request, error) {
	if m.builder == nil {
		if err := m.validateHTTP(); err != nil {
			return nil, err
		}
	}

	src := m.source
	if src == nil {
		src = m
	}

	return m.builder(
		src.GetRequestURL(),
		src.GetPayload(),
		WithRequestHeaders(src.GetHeaders()),
		WithRequestCookies(src.GetCookies()),
		WithCallback(callback),
	)
}

func (m *HTTPMixin) GetRequestURL() string {
	return m.RequestURL
}

func (m *HTTPMixin) GetPayload() map[string]string {
	return m.Payload
}

func (m *HTTPMixin) GetHeaders() map[string]string {
	return m.Headers
}

func (m *HTTPMixin) GetCookies() map[string]string {
	return m.Cookies
}
