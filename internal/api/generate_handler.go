package api

import (
	"encoding/base64"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/cheahjs/hf-image-proxy/internal/inference"
	"github.com/cheahjs/hf-image-proxy/internal/metrics"
)

const (
	detailNotConfigured = "HF_TOKEN not configured"
	detailModelLoading  = "Model is loading, please wait and retry"
)

func (router *Router) generateHandler(w http.ResponseWriter, r *http.Request) {
	logger := loggerFrom(r)

	if !router.cfg.HasToken() {
		router.record(metrics.OutcomeUnconfigured)
		respondWithError(w, http.StatusInternalServerError, detailNotConfigured)
		return
	}

	request, reqErr := decodeGenerationRequest(w, r)
	if reqErr != nil {
		logger.Debug().Str("detail", reqErr.detail).Msg("Rejected generation request")
		router.record(metrics.OutcomeInvalid)
		respondWithError(w, reqErr.status, reqErr.detail)
		return
	}

	logger.Info().
		Int("height", request.Height).
		Int("width", request.Width).
		Float64("guidance_scale", request.GuidanceScale).
		Int("num_inference_steps", request.NumInferenceSteps).
		Msg("Forwarding generation request")

	imageData, err := router.generator.Generate(r.Context(), convertRequest(request))
	if err != nil {
		router.handleGenerateError(w, r, err)
		return
	}

	router.record(metrics.OutcomeSuccess)
	respondWithJSON(w, http.StatusOK, GenerationResponse{
		ImageBase64: base64.StdEncoding.EncodeToString(imageData),
		Prompt:      request.Prompt,
	})
}

func (router *Router) handleGenerateError(w http.ResponseWriter, r *http.Request, err error) {
	logger := loggerFrom(r)

	var (
		loadingErr   *inference.LoadingError
		statusErr    *inference.StatusError
		transportErr *inference.TransportError
	)
	switch {
	case errors.Is(err, inference.ErrNoToken):
		router.record(metrics.OutcomeUnconfigured)
		respondWithError(w, http.StatusInternalServerError, detailNotConfigured)
	case errors.As(err, &loadingErr):
		logger.Warn().Dur("estimated_time", loadingErr.EstimatedTime).Msg("Model is loading")
		router.record(metrics.OutcomeLoading)
		if loadingErr.EstimatedTime > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(loadingErr.EstimatedTime.Seconds()))))
		}
		respondWithError(w, http.StatusServiceUnavailable, detailModelLoading)
	case errors.As(err, &statusErr):
		logger.Warn().Int("status", statusErr.StatusCode).Msg("Inference API rejected request")
		router.record(metrics.OutcomeRejected)
		respondWithError(w, statusErr.StatusCode, statusErr.Body)
	case errors.As(err, &transportErr):
		logger.Error().Err(transportErr.Err).Msg("Inference API request failed")
		router.record(metrics.OutcomeTransport)
		respondWithError(w, http.StatusBadGateway, "API request failed: "+transportErr.Err.Error())
	default:
		logger.Error().Err(err).Msg("Failed to call inference API")
		router.record(metrics.OutcomeTransport)
		respondWithError(w, http.StatusInternalServerError, "API request failed: "+err.Error())
	}
}
