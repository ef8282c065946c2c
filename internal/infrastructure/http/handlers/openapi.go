package handlers

import (
	_ "embed"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/alchemorsel/nutrition/internal/infrastructure/http/middleware"
)

//go:embed openapi.yaml
var openAPISpec []byte

// OpenAPIHandler serves the API description
type OpenAPIHandler struct {
	logger *zap.Logger
	spec   []byte
}

// NewOpenAPIHandler creates a new OpenAPI handler
func NewOpenAPIHandler(logger *zap.Logger) *OpenAPIHandler {
	return &OpenAPIHandler{
		logger: logger.Named("openapi"),
		spec:   openAPISpec,
	}
}

// ServeSpec handles GET /api/v1/openapi.yaml
func (h *OpenAPIHandler) ServeSpec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/x-yaml")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(h.spec); err != nil {
		h.logger.Debug("Failed to write OpenAPI spec", zap.Error(err))
	}
}

// ServeIndex handles GET /api/v1 with links to the spec
func (h *OpenAPIHandler) ServeIndex(w http.ResponseWriter, r *http.Request) {
	base := fmt.Sprintf("%s://%s/api/v1", scheme(r), r.Host)
	w.Header().Set("Access-Control-Allow-Origin", "*")
	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"openapi":  "3.0.3",
		"title":    "Nutrition Service API",
		"base_url": base,
		"spec_url": base + "/openapi.yaml",
	})
}

func scheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		return proto
	}
	return "http"
}
