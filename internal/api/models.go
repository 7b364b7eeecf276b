package api

// Defaults applied to fields omitted from a generation request.
const (
	DefaultHeight            = 1024
	DefaultWidth             = 1024
	DefaultGuidanceScale     = 3.5
	DefaultNumInferenceSteps = 50
)

// GenerationRequest represents an inbound text-to-image request
type GenerationRequest struct {
	Prompt            string  `json:"prompt"`
	Height            int     `json:"height"`
	Width             int     `json:"width"`
	GuidanceScale     float64 `json:"guidance_scale"`
	NumInferenceSteps int     `json:"num_inference_steps"`
}

// generationRequestBody mirrors GenerationRequest with pointers so that
// omitted fields can be told apart from zero values.
type generationRequestBody struct {
	Prompt            *string  `json:"prompt"`
	Height            *int     `json:"height"`
	Width             *int     `json:"width"`
	GuidanceScale     *float64 `json:"guidance_scale"`
	NumInferenceSteps *int     `json:"num_inference_steps"`
}

// GenerationResponse carries the generated image back to the caller
type GenerationResponse struct {
	ImageBase64 string `json:"image_base64"`
	Prompt      string `json:"prompt"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ErrorResponse is the envelope for every error the proxy returns
type ErrorResponse struct {
	Detail string `json:"detail"`
}
