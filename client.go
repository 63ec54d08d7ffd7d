package venom

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/valyala/fasthttp"
	"golang.org/x/net/html/charset"
)

type (
	RequestHook  func(req *Request) error
	ResponseHook func(resp *Response) error
)

type internalClient interface {
	Do(req *fasthttp.Request, resp *fasthttp.Response) error
}

type documentCreator interface {
	NewDocumentFromReader(r io.Reader) (*goquery.Document, error)
}

type defaultDocumentCreator struct{}

func (d *defaultDocumentCreator) NewDocumentFromReader(r io.Reader) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(r)
}

// Client executes request descriptors over fasthttp.
type Client struct {
	header    *fasthttp.RequestHeader
	timeout   time.Duration
	userAgent string
	logger    Logger

	internal        internalClient
	documentCreator documentCreator
	isValidURL      func(s string) bool

	internalPreRequestHooks   []RequestHook
	internalPostResponseHooks []ResponseHook
	udPreRequestHooks         []RequestHook
	udPostResponseHooks       []ResponseHook
}

type ClientOption optionFunc[*Client]

func WithHeaders(headers map[string]string) ClientOption {
	return func(c *Client) error {
		for k, v := range headers {
			c.header.Set(k, v)
		}
		return nil
	}
}

func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) error {
		if timeout < 0 {
			return errInvalidTimeout
		}
		c.timeout = timeout
		return nil
	}
}

func WithUserAgent(ua string) ClientOption {
	return func(c *Client) error {
		c.userAgent = ua
		return nil
	}
}

func WithPreRequestHooks(hooks ...RequestHook) ClientOption {
	return func(c *Client) error {
		c.udPreRequestHooks = append(c.udPreRequestHooks, hooks...)
		return nil
	}
}

func WithPostResponseHooks(hooks ...ResponseHook) ClientOption {
	return func(c *Client) error {
		c.udPostResponseHooks = append(c.udPostResponseHooks, hooks...)
		return nil
	}
}

func withInternalPreRequestHooks(hooks ...RequestHook) ClientOption {
	return func(c *Client) error {
		c.internalPreRequestHooks = append(c.internalPreRequestHooks, hooks...)
		return nil
	}
}

func withInternalPostResponseHooks(hooks ...ResponseHook) ClientOption {
	return func(c *Client) error {
		c.internalPostResponseHooks = append(c.internalPostResponseHooks, hooks...)
		return nil
	}
}

func withInternalClient(ic internalClient) ClientOption {
	return func(c *Client) error {
		c.internal = ic
		return nil
	}
}

func withDocumentCreator(dc documentCreator) ClientOption {
	return func(c *Client) error {
		c.documentCreator = dc
		return nil
	}
}

func withClientLogger(logger Logger) ClientOption {
	return func(c *Client) error {
		c.logger = logger
		return nil
	}
}

func newClient(optFns ...ClientOption) (*Client, error) {
	c := &Client{
		header:          &fasthttp.RequestHeader{},
		timeout:         30 * time.Second,
		userAgent:       "venom",
		logger:          nopLogger{},
		internal:        &fasthttp.Client{},
		documentCreator: &defaultDocumentCreator{},
		isValidURL:      urlMatcher(),
	}

	for _, optFn := range optFns {
		if err := optFn(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// execute sends req and builds its response. Cancelling ctx returns ctx.Err()
// without waiting for an in-flight fetch.
func (c *Client) execute(ctx context.Context, req *Request) (*Response, error) {
	for _, hook := range c.internalPreRequestHooks {
		if err := hook(req); err != nil {
			return nil, err
		}
	}
	for _, hook := range c.udPreRequestHooks {
		if err := hook(req); err != nil {
			return nil, err
		}
	}

	if !c.isValidURL(req.URL) {
		c.logger.Error("Refusing to send request", LogContext{"url": req.URL, "err": errInvalidURL})
		return nil, errInvalidURL
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fhReq := fasthttp.AcquireRequest()
	fhResp := fasthttp.AcquireResponse()

	c.header.CopyTo(&fhReq.Header)
	fhReq.Header.SetUserAgent(c.userAgent)
	req.toFastHTTP(fhReq)
	if c.timeout > 0 {
		fhReq.SetTimeout(c.timeout)
	}

	c.logger.Debug("Sending request", LogContext{"url": req.URL, "method": string(req.Method), "requestID": req.ID})
	done := make(chan error, 1)
	go func() {
		done <- c.internal.Do(fhReq, fhResp)
	}()

	var err error
	select {
	case <-ctx.Done():
		// the fetch still owns the wire objects
		go func() {
			<-done
			fasthttp.ReleaseRequest(fhReq)
			fasthttp.ReleaseResponse(fhResp)
		}()
		c.logger.Warn("Request abandoned", LogContext{"url": req.URL, "err": ctx.Err()})
		return nil, ctx.Err()
	case err = <-done:
	}
	defer fasthttp.ReleaseRequest(fhReq)
	defer fasthttp.ReleaseResponse(fhResp)

	if err != nil {
		c.logger.Error("Failed to execute request", LogContext{"url": req.URL, "err": err})
		return nil, err
	}

	resp, err := c.buildResponse(req, fhResp)
	if err != nil {
		return nil, err
	}

	for _, hook := range c.internalPostResponseHooks {
		if err := hook(resp); err != nil {
			return nil, err
		}
	}
	for _, hook := range c.udPostResponseHooks {
		if err := hook(resp); err != nil {
			return nil, err
		}
	}

	return resp, nil
}

func (c *Client) buildResponse(req *Request, fhResp *fasthttp.Response) (*Response, error) {
	header := make(map[string]string)
	fhResp.Header.VisitAll(func(k, v []byte) {
		header[string(k)] = string(v)
	})

	resp := &Response{
		Request:    req,
		StatusCode: fhResp.StatusCode(),
		Header:     header,
		Body:       append([]byte(nil), fhResp.Body()...),
	}

	// charset.NewReader fails with io.EOF on an empty body
	var bodyReader io.Reader = bytes.NewReader(resp.Body)
	if len(resp.Body) > 0 {
		contentType := string(fhResp.Header.ContentType())
		decoded, err := charset.NewReader(bodyReader, contentType)
		if err != nil {
			c.logger.Error("Failed to convert response body", LogContext{
				"url":               req.URL,
				"sourceContentType": contentType,
				"targetContentType": "utf-8",
				"err":               err,
			})
			return nil, err
		}
		bodyReader = decoded
	}

	doc, err := c.documentCreator.NewDocumentFromReader(bodyReader)
	if err != nil {
		c.logger.Error("Failed to build goquery document", LogContext{"err": err})
		return nil, err
	}
	resp.document = doc

	return resp, nil
}
