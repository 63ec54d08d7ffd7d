package venom

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/valyala/fasthttp"
)

type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(msg string, context ...LogContext) {
	m.Called(msg, context)
}

func (m *MockLogger) Info(msg string, context ...LogContext) {
	m.Called(msg, context)
}

func (m *MockLogger) Warn(msg string, context ...LogContext) {
	m.Called(msg, context)
}

func (m *MockLogger) Error(msg string, context ...LogContext) {
	m.Called(msg, context)
}

func (m *MockLogger) Panic(msg string, context ...LogContext) {
	m.Called(msg, context)
}

// newMockLogger returns a MockLogger accepting any call at any level.
func newMockLogger(t *testing.T) *MockLogger {
	mockLogger := new(MockLogger)

	mockLogger.On("Debug", mock.Anything, mock.Anything).Return(nil)
	mockLogger.On("Info", mock.Anything, mock.Anything).Return(nil)
	mockLogger.On("Warn", mock.Anything, mock.Anything).Return(nil)
	mockLogger.On("Error", mock.Anything, mock.Anything).Return(nil)
	mockLogger.On("Panic", mock.Anything, mock.Anything).Return(nil)

	return mockLogger
}

type mockInternalClient struct {
	mock.Mock
}

func (m *mockInternalClient) Do(req *fasthttp.Request, resp *fasthttp.Response) error {
	args := m.Called(req, resp)
	return args.Error(0)
}

type MockFileSystem struct {
	MkdirAllErr  error
	OpenFileErr  error
	OpenFileMock *os.File
	ReadFileData []byte
	ReadFileErr  error
}

func (mfs MockFileSystem) MkdirAll(path string, perm os.FileMode) error {
	return mfs.MkdirAllErr
}

func (mfs MockFileSystem) OpenFile(name string, flag int, perm os.FileMode) (*os.File, error) {
	return mfs.OpenFileMock, mfs.OpenFileErr
}

func (mfs MockFileSystem) ReadFile(name string) ([]byte, error) {
	return mfs.ReadFileData, mfs.ReadFileErr
}

func createTestServer(fn func(rw http.ResponseWriter, req *http.Request)) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(fn))
}
