package venom

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewClient(t *testing.T) {
	t.Run("Successful build", func(t *testing.T) {
		client, err := newClient(
			withInternalClient(new(mockInternalClient)),
			withDocumentCreator(&defaultDocumentCreator{}),
		)

		assert.NotNil(t, client, "NewClient should not return nil")
		assert.NoError(t, err, "NewClient should not return error")
		assert.Equal(t, 30*time.Second, client.timeout, "Timeout should default to 30 seconds")
		assert.Equal(t, "venom", client.userAgent, "User agent should default to venom")
	})

	t.Run("Successfully build with valid options", func(t *testing.T) {
		logger := &DefaultLogger{}
		client, err := newClient(
			withInternalClient(new(mockInternalClient)),
			withDocumentCreator(&defaultDocumentCreator{}),
			WithHeaders(map[string]string{
				"Content-Type": "application/json",
				"Accept":       "application/xml",
			}),
			WithTimeout(10*time.Second),
			WithUserAgent("test-agent"),
			withClientLogger(logger),
		)

		assert.NoError(t, err, "newClient should not return error")
		assert.Equal(t, "application/json", string(client.header.Peek("Content-Type")), "Content-Type should be application/json")
		assert.Equal(t, "application/xml", string(client.header.Peek("Accept")), "Accept should be application/xml")
		assert.Equal(t, 10*time.Second, client.timeout, "Timeout should be 10 seconds")
		assert.Equal(t, "test-agent", client.userAgent)
		assert.Same(t, logger, client.logger, "Logger should be set correctly")
	})

	t.Run("Successfully build with valid hooks", func(t *testing.T) {
		mockPreRequestHook := func(req *Request) error {
			return nil
		}
		mockPostRequestHook := func(resp *Response) error {
			return nil
		}
		client, err := newClient(
			withInternalClient(new(mockInternalClient)),
			withDocumentCreator(&defaultDocumentCreator{}),
			WithPreRequestHooks(mockPreRequestHook, mockPreRequestHook),
			WithPostResponseHooks(mockPostRequestHook, mockPostRequestHook),
		)

		assert.NoError(t, err, "newClient should not return error")
		assert.Len(t, client.udPreRequestHooks, 2, "PreRequestHooks should have 2 hooks")
		assert.Len(t, client.udPostResponseHooks, 2, "PostResponseHooks should have 2 hooks")
	})

	t.Run("Failed to build with invalid options", func(t *testing.T) {
		client, err := newClient(
			withInternalClient(new(mockInternalClient)),
			withDocumentCreator(&defaultDocumentCreator{}),
			WithTimeout(-1),
		)

		assert.Nil(t, client, "Client should be nil")
		assert.Error(t, err, "newClient should return error")
		assert.Equal(t, errInvalidTimeout, err, "Error should be errInvalidTimeout")
	})
}

func setupClient(t *testing.T, opts ...ClientOption) (*Client, *mockInternalClient) {
	httpClient := new(mockInternalClient)
	opts = append(opts, withInternalClient(httpClient), withDocumentCreator(&defaultDocumentCreator{}))
	client, err := newClient(opts...)
	require.NoError(t, err)
	return client, httpClient
}

func newTestRequest(t *testing.T, opts ...RequestOption) *Request {
	req, err := NewRequest(MethodGet, "http://example.com/page", opts...)
	require.NoError(t, err)
	return req
}

func assertExecuteSuccess(t *testing.T, client *Client, httpClient *mockInternalClient, setupMock func(*mockInternalClient)) *Response {
	if setupMock != nil {
		setupMock(httpClient)
	}

	response, err := client.execute(context.Background(), newTestRequest(t))

	assert.NoError(t, err)
	assert.NotNil(t, response)

	httpClient.AssertExpectations(t)
	return response
}

func assertExecuteFailure(t *testing.T, client *Client, httpClient *mockInternalClient, expectedError string, setupMock func(*mockInternalClient)) {
	if setupMock != nil {
		setupMock(httpClient)
	}

	response, err := client.execute(context.Background(), newTestRequest(t))

	assert.Nil(t, response)
	assert.Error(t, err)
	assert.Equal(t, expectedError, err.Error())

	httpClient.AssertExpectations(t)
}

type mockDocumentCreator struct {
	Doc *goquery.Document
	Err error
}

func (d mockDocumentCreator) NewDocumentFromReader(r io.Reader) (*goquery.Document, error) {
	return d.Doc, d.Err
}

func TestExecute(t *testing.T) {
	t.Run("Successful execute", func(t *testing.T) {
		client, httpClient := setupClient(t)
		resp := assertExecuteSuccess(t, client, httpClient, func(httpClient *mockInternalClient) {
			httpClient.On("Do", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
				resp := args.Get(1).(*fasthttp.Response)
				resp.Header.SetContentType("text/html; charset=utf-8")
				resp.SetBody([]byte("<html><body><h1>mock response</h1></body></html>"))
			}).Return(nil)
		})

		assert.Equal(t, fasthttp.StatusOK, resp.StatusCode)
		assert.Equal(t, "mock response", resp.Document().Find("h1").Text())
		assert.Equal(t, "text/html; charset=utf-8", resp.ContentType())
	})

	t.Run("Empty body builds an empty document", func(t *testing.T) {
		for _, status := range []int{fasthttp.StatusOK, fasthttp.StatusNoContent} {
			client, httpClient := setupClient(t)
			resp := assertExecuteSuccess(t, client, httpClient, func(httpClient *mockInternalClient) {
				httpClient.On("Do", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
					resp := args.Get(1).(*fasthttp.Response)
					resp.SetStatusCode(status)
					resp.Header.SetContentType("text/html; charset=utf-8")
				}).Return(nil)
			})

			assert.Equal(t, status, resp.StatusCode)
			assert.Empty(t, resp.Body)
			require.NotNil(t, resp.Document())
			assert.Empty(t, resp.Document().Find("body").Text())
		}
	})

	t.Run("Cancelled context abandons the fetch", func(t *testing.T) {
		client, httpClient := setupClient(t)
		release := make(chan struct{})
		defer close(release)
		started := make(chan struct{})
		httpClient.On("Do", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
			close(started)
			<-release
		}).Return(nil)

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			<-started
			cancel()
		}()

		response, err := client.execute(ctx, newTestRequest(t))

		assert.Nil(t, response)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("Cancelled context skips the fetch", func(t *testing.T) {
		client, httpClient := setupClient(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		response, err := client.execute(ctx, newTestRequest(t))

		assert.Nil(t, response)
		assert.ErrorIs(t, err, context.Canceled)
		httpClient.AssertNotCalled(t, "Do", mock.Anything, mock.Anything)
	})

	t.Run("Request descriptor is copied to the wire", func(t *testing.T) {
		client, httpClient := setupClient(t, WithHeaders(map[string]string{"Accept": "text/html"}))
		httpClient.On("Do", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
			req := args.Get(0).(*fasthttp.Request)
			assert.Equal(t, "POST", string(req.Header.Method()))
			assert.Equal(t, "http://example.com/form", req.URI().String())
			assert.Equal(t, "a=1", string(req.Body()))
			assert.Equal(t, "text/html", string(req.Header.Peek("Accept")))
			assert.Equal(t, "yes", string(req.Header.Peek("X-Test")))
			assert.Equal(t, "abc", string(req.Header.Cookie("session")))
			assert.Equal(t, "venom", string(req.Header.UserAgent()))
		}).Return(nil)

		req, err := httpPost("http://example.com/form", map[string]string{"a": "1"},
			WithRequestHeaders(map[string]string{"X-Test": "yes"}),
			WithRequestCookies(map[string]string{"session": "abc"}),
		)
		require.NoError(t, err)

		_, err = client.execute(context.Background(), req)
		assert.NoError(t, err)
		httpClient.AssertExpectations(t)
	})

	t.Run("Failed to send request", func(t *testing.T) {
		core, recorded := observer.New(zap.InfoLevel)
		logger := &DefaultLogger{internal: zap.New(core)}

		client, httpClient := setupClient(t, withClientLogger(logger))
		httpClient.On("Do", mock.Anything, mock.Anything).Return(errors.New("test network error"))

		response, err := client.execute(context.Background(), newTestRequest(t))

		assert.Nil(t, response, "Response should be nil")
		assert.EqualError(t, err, "test network error")

		entries := recorded.FilterMessage("Failed to execute request").All()
		require.Len(t, entries, 1, "Expected one log entry to be recorded")
		assert.Equal(t, zap.ErrorLevel, entries[0].Level, "Incorrect log level")
		assert.Equal(t, "test network error", entries[0].ContextMap()["err"], "Incorrect context logged")
	})

	t.Run("Refuses invalid url", func(t *testing.T) {
		client, httpClient := setupClient(t)

		req := newTestRequest(t)
		req.URL = "not a url"
		response, err := client.execute(context.Background(), req)

		assert.Nil(t, response)
		assert.ErrorIs(t, err, errInvalidURL)
		httpClient.AssertNotCalled(t, "Do", mock.Anything, mock.Anything)
	})

	t.Run("Failed to build goquery document", func(t *testing.T) {
		core, recorded := observer.New(zap.InfoLevel)
		logger := &DefaultLogger{internal: zap.New(core)}

		httpClient := new(mockInternalClient)
		docCreator := &mockDocumentCreator{
			Doc: nil,
			Err: errors.New("test document error"),
		}
		client, err := newClient(
			withInternalClient(httpClient),
			withDocumentCreator(docCreator),
			withClientLogger(logger),
		)
		require.NoError(t, err)

		httpClient.On("Do", mock.Anything, mock.Anything).Return(nil)

		response, err := client.execute(context.Background(), newTestRequest(t))

		assert.Nil(t, response, "Response should be nil")
		assert.EqualError(t, err, "test document error")

		entries := recorded.All()
		require.Len(t, entries, 1, "Expected one log entry to be recorded")
		entry := entries[0]

		assert.Equal(t, zap.ErrorLevel, entry.Level, "Incorrect log level")
		assert.Equal(t, "Failed to build goquery document", entry.Message, "Incorrect message")
		assert.Equal(t, "test document error", entry.ContextMap()["err"], "Incorrect context logged")
	})

	t.Run("Successful execution with pre-request hooks", func(t *testing.T) {
		client, httpClient := setupClient(t, WithPreRequestHooks(func(req *Request) error {
			req.Method = MethodPost
			return nil
		}))
		assertExecuteSuccess(t, client, httpClient, func(httpClient *mockInternalClient) {
			httpClient.On("Do", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
				req := args.Get(0).(*fasthttp.Request)
				assert.Equal(t, "POST", string(req.Header.Method()))
			}).Return(nil)
		})
	})

	t.Run("Failed execution due to pre-request hooks returning error", func(t *testing.T) {
		client, httpClient := setupClient(t, WithPreRequestHooks(func(req *Request) error {
			return errors.New("pre-request error")
		}))
		assertExecuteFailure(t, client, httpClient, "pre-request error", nil)
	})

	t.Run("Successful execution with post-response hooks", func(t *testing.T) {
		var seen *Response
		client, httpClient := setupClient(t, WithPostResponseHooks(func(resp *Response) error {
			seen = resp
			return nil
		}))
		resp := assertExecuteSuccess(t, client, httpClient, func(httpClient *mockInternalClient) {
			httpClient.On("Do", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
				req := args.Get(0).(*fasthttp.Request)
				assert.Equal(t, "GET", string(req.Header.Method()), "Method should be GET")
			}).Return(nil)
		})
		assert.Same(t, resp, seen)
	})

	t.Run("Failed execution due to post-response hooks returning error", func(t *testing.T) {
		client, httpClient := setupClient(t, WithPostResponseHooks(func(resp *Response) error {
			return errors.New("post-response error")
		}))
		assertExecuteFailure(t, client, httpClient, "post-response error", func(httpClient *mockInternalClient) {
			httpClient.On("Do", mock.Anything, mock.Anything).Return(nil)
		})
	})

	t.Run("Internal hooks run before user hooks", func(t *testing.T) {
		var order []string
		client, httpClient := setupClient(t,
			WithPreRequestHooks(func(req *Request) error {
				order = append(order, "user")
				return nil
			}),
			withInternalPreRequestHooks(func(req *Request) error {
				order = append(order, "internal")
				return nil
			}),
		)
		assertExecuteSuccess(t, client, httpClient, func(httpClient *mockInternalClient) {
			httpClient.On("Do", mock.Anything, mock.Anything).Return(nil)
		})
		assert.Equal(t, []string{"internal", "user"}, order)
	})

	t.Run("Failed execution due to internal pre-request hooks returning error", func(t *testing.T) {
		client, httpClient := setupClient(t, withInternalPreRequestHooks(func(req *Request) error {
			return errors.New("pre-request error")
		}))
		assertExecuteFailure(t, client, httpClient, "pre-request error", nil)
	})

	t.Run("Failed execution due to internal post-response hooks returning error", func(t *testing.T) {
		client, httpClient := setupClient(t, withInternalPostResponseHooks(func(resp *Response) error {
			return errors.New("post-response error")
		}))
		assertExecuteFailure(t, client, httpClient, "post-response error", func(httpClient *mockInternalClient) {
			httpClient.On("Do", mock.Anything, mock.Anything).Return(nil)
		})
	})
}
