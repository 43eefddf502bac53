package download

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/stretchr/testify/mock"
)

type MockOpener struct {
	mock.Mock
}

func (m *MockOpener) Open(ctx context.Context, rawURL string) error {
	args := m.Called(ctx, rawURL)
	return args.Error(0)
}

type MockRelay struct {
	mock.Mock
}

func (m *MockRelay) Get(ctx context.Context, target string) (*http.Response, error) {
	args := m.Called(ctx, target)
	resp, _ := args.Get(0).(*http.Response)
	return resp, args.Error(1)
}

func response(status int, body string) *http.Response {
	return &http.Response{
		StatusCode:    status,
		Status:        http.StatusText(status),
		Header:        http.Header{},
		Body:          io.NopCloser(strings.NewReader(body)),
		ContentLength: int64(len(body)),
	}
}
