package google

import (
	"errors"

	ai "github.com/spetersoncode/scholar"
	"google.golang.org/genai"
)

// wrapError categorizes genai API errors. genai.APIError does not expose
// response headers, so no Retry-After hint is available.
func wrapError(err error) error {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	return ai.NewStatusError("google: "+err.Error(), apiErr.Code, 0, err)
}
