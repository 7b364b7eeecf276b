package inference

// Request is the body accepted by the Hugging Face text-to-image task.
type Request struct {
	Inputs     string     `json:"inputs"`
	Parameters Parameters `json:"parameters"`
}

// Parameters are the generation knobs forwarded to the model.
type Parameters struct {
	Height            int     `json:"height"`
	Width             int     `json:"width"`
	GuidanceScale     float64 `json:"guidance_scale"`
	NumInferenceSteps int     `json:"num_inference_steps"`
}

// loadingResponse is the body returned alongside a 503 while the model loads.
type loadingResponse struct {
	Error         string  `json:"error"`
	EstimatedTime float64 `json:"estimated_time"`
}
