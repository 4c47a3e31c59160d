package anthropic

import (
	"errors"
	"strconv"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	ai "github.com/spetersoncode/scholar"
)

func wrapError(err error) error {
	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		return err
	}

	var retryAfter time.Duration
	if apiErr.Response != nil {
		if s, convErr := strconv.Atoi(apiErr.Response.Header.Get("Retry-After")); convErr == nil {
			retryAfter = time.Duration(s) * time.Second
		}
	}
	// 529 is Anthropic's "overloaded" status and falls in the 5xx range
	return ai.NewStatusError("anthropic: "+err.Error(), apiErr.StatusCode, retryAfter, err)
}
