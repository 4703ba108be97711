package synth

import (
	"errors"
	"fmt"
)

// ErrSynthesisFailed matches every error returned by a failed synthesis request.
var ErrSynthesisFailed = errors.New("synthesis request failed")

// RequestError describes a failed call to the synthesis API.
type RequestError struct {
	StatusCode int    // HTTP status, 0 for transport failures
	Retryable  bool   // transport errors and 429/500/503
	Refusal    string // text the model returned instead of audio
	Safety     bool   // blocked by safety filters
	Err        error
}

func (e *RequestError) Error() string {
	switch {
	case e.Refusal != "":
		return "model refusal: " + e.Refusal
	case e.Safety:
		return "safety block: please adjust the script or settings"
	case e.StatusCode != 0:
		return fmt.Sprintf("generation failed: status %d: %v", e.StatusCode, e.Err)
	default:
		return fmt.Sprintf("generation failed: %v", e.Err)
	}
}

func (e *RequestError) Unwrap() error { return e.Err }

func (e *RequestError) Is(target error) bool { return target == ErrSynthesisFailed }

func retryableStatus(code int) bool {
	switch code {
	case 429, 500, 503:
		return true
	default:
		return false
	}
}
