package api

import (
	"net/http"

	"github.com/samber/lo"
)

func (router *Router) healthHandler(w http.ResponseWriter, r *http.Request) {
	ok := router.cfg.HasToken()
	respondWithJSON(w, http.StatusOK, HealthResponse{
		Status:  lo.Ternary(ok, "healthy", "no_token"),
		Message: lo.Ternary(ok, "Using Hugging Face Inference API", "HF_TOKEN required"),
	})
}
