package resolve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/tidwall/gjson"
)

// Getter is the relay as seen by resolvers and the download executor.
type Getter interface {
	Get(ctx context.Context, target string) (*http.Response, error)
}

func getJSON(ctx context.Context, relay Getter, target string) (gjson.Result, error) {
	resp, err := relay.Get(ctx, target)
	if err != nil {
		return gjson.Result{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return gjson.Result{}, fmt.Errorf("api not responding: %s", resp.Status)
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("io.ReadAll: %w", err)
	}
	if !gjson.ValidBytes(b) {
		return gjson.Result{}, errors.New("response is not json")
	}
	return gjson.ParseBytes(b), nil
}

// str returns r only when it holds a JSON string.
func str(r gjson.Result) string {
	if r.Type != gjson.String {
		return ""
	}
	return r.Str
}
