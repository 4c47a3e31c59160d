package openai

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/openai/openai-go"
	ai "github.com/spetersoncode/scholar"
)

// wrapError categorizes SDK API errors by status code. Other errors pass
// through for the retry heuristics.
func wrapError(err error) error {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	return ai.NewStatusError("openai: "+err.Error(), apiErr.StatusCode, parseRetryAfter(apiErr.Response), err)
}

// parseRetryAfter reads Retry-After as seconds or an HTTP date.
func parseRetryAfter(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}
	header := resp.Header.Get("Retry-After")
	if header == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(header); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
