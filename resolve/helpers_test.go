package resolve

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
)

// stubRelay answers Get from a fixed table and records every target asked for.
type stubRelay struct {
	mu        sync.Mutex
	responses map[string]stubResponse
	calls     []string
}

type stubResponse struct {
	status int
	body   string
	err    error
}

func newStubRelay(responses map[string]stubResponse) *stubRelay {
	return &stubRelay{responses: responses}
}

func (s *stubRelay) Get(ctx context.Context, target string) (*http.Response, error) {
	s.mu.Lock()
	s.calls = append(s.calls, target)
	s.mu.Unlock()

	r, ok := s.responses[target]
	if !ok {
		return nil, &ExhaustedError{Err: ErrAllProxiesExhausted, Causes: errors.New("direct: no route to " + target)}
	}
	if r.err != nil {
		return nil, r.err
	}

	status := r.status
	if status == 0 {
		status = http.StatusOK
	}
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Header:     http.Header{"Content-Type": {"application/json"}},
		Body:       io.NopCloser(strings.NewReader(r.body)),
	}, nil
}

func (s *stubRelay) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}
