package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/cheahjs/hf-image-proxy/internal/inference"
	"github.com/samber/lo"
)

const maxRequestBytes = 1 << 20

// requestError is a rejected inbound request with the status to answer with.
type requestError struct {
	status int
	detail string
}

func (e *requestError) Error() string {
	return e.detail
}

func invalidRequest(format string, args ...any) *requestError {
	return &requestError{status: http.StatusUnprocessableEntity, detail: fmt.Sprintf(format, args...)}
}

func decodeGenerationRequest(w http.ResponseWriter, r *http.Request) (GenerationRequest, *requestError) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return GenerationRequest{}, &requestError{
				status: http.StatusRequestEntityTooLarge,
				detail: fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit),
			}
		}
		return GenerationRequest{}, &requestError{status: http.StatusBadRequest, detail: err.Error()}
	}

	return parseGenerationRequest(body)
}

func parseGenerationRequest(body []byte) (GenerationRequest, *requestError) {
	var raw generationRequestBody
	if err := json.Unmarshal(body, &raw); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return GenerationRequest{}, invalidRequest("%s: expected %s, got %s", typeErr.Field, typeErr.Type, typeErr.Value)
		}
		return GenerationRequest{}, invalidRequest("invalid JSON body: %v", err)
	}

	if raw.Prompt == nil {
		return GenerationRequest{}, invalidRequest("prompt: field required")
	}
	if strings.TrimSpace(*raw.Prompt) == "" {
		return GenerationRequest{}, invalidRequest("prompt: must not be empty")
	}

	return GenerationRequest{
		Prompt:            *raw.Prompt,
		Height:            lo.FromPtrOr(raw.Height, DefaultHeight),
		Width:             lo.FromPtrOr(raw.Width, DefaultWidth),
		GuidanceScale:     lo.FromPtrOr(raw.GuidanceScale, DefaultGuidanceScale),
		NumInferenceSteps: lo.FromPtrOr(raw.NumInferenceSteps, DefaultNumInferenceSteps),
	}, nil
}

func convertRequest(request GenerationRequest) inference.Request {
	return inference.Request{
		Inputs: request.Prompt,
		Parameters: inference.Parameters{
			Height:            request.Height,
			Width:             request.Width,
			GuidanceScale:     request.GuidanceScale,
			NumInferenceSteps: request.NumInferenceSteps,
		},
	}
}
