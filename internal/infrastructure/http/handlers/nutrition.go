// Package handlers provides HTTP handlers for the REST API
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/alchemorsel/nutrition/internal/infrastructure/http/middleware"
	"github.com/alchemorsel/nutrition/internal/ports/inbound"
	apperrors "github.com/alchemorsel/nutrition/pkg/errors"
)

// NutritionHandlers serves the nutrition use cases as JSON
type NutritionHandlers struct {
	service      inbound.NutritionService
	validate     *validator.Validate
	maxBodyBytes int64
	logger       *zap.Logger
}

// NewNutritionHandlers creates a new handlers instance
func NewNutritionHandlers(service inbound.NutritionService, maxBodyBytes int64, logger *zap.Logger) *NutritionHandlers {
	if maxBodyBytes <= 0 {
		maxBodyBytes = 1 << 20
	}
	v := validator.New()
	v.RegisterTagNameFunc(jsonFieldName)

	return &NutritionHandlers{
		service:      service,
		validate:     v,
		maxBodyBytes: maxBodyBytes,
		logger:       logger.Named("nutrition-handlers"),
	}
}

// CalculateTargets handles POST /api/v1/targets
func (h *NutritionHandlers) CalculateTargets(w http.ResponseWriter, r *http.Request) {
	var req TargetsRequest
	if !h.bind(w, r, &req) {
		return
	}

	target, err := h.service.CalculateTargets(r.Context(), req.Profile)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, target)
}

// ScoreMeal handles POST /api/v1/meals/score
func (h *NutritionHandlers) ScoreMeal(w http.ResponseWriter, r *http.Request) {
	var req ScoreMealRequest
	if !h.bind(w, r, &req) {
		return
	}

	meal, err := req.Meal.Breakdown()
	if err != nil {
		middleware.WriteError(w, r, apperrors.NewValidationError(err.Error()))
		return
	}

	assessment, err := h.service.RateMeal(r.Context(), inbound.RateMealCommand{
		Profile:     req.Profile,
		Meal:        meal,
		Ingredients: req.Ingredients,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, assessment)
}

// GetAdvice handles POST /api/v1/advice
func (h *NutritionHandlers) GetAdvice(w http.ResponseWriter, r *http.Request) {
	var req AdviceRequest
	if !h.bind(w, r, &req) {
		return
	}

	meal, err := req.Nutrition.Breakdown()
	if err != nil {
		middleware.WriteError(w, r, apperrors.NewValidationError(err.Error()))
		return
	}

	opinion, err := h.service.GetAIOpinion(r.Context(), inbound.AIOpinionCommand{
		Profile:     req.Profile,
		Ingredients: req.Ingredients,
		Nutrition:   meal,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, opinion)
}

// VerifyAdvice handles POST /api/v1/advice/verify
func (h *NutritionHandlers) VerifyAdvice(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if !h.bind(w, r, &req) {
		return
	}

	middleware.WriteJSON(w, http.StatusOK, h.service.VerifyRecommendations(r.Context(), req.Recommendations))
}

// bind decodes and validates the body, writing the error response on failure
func (h *NutritionHandlers) bind(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			middleware.WriteError(w, r, apperrors.NewBadRequestError("Request body is empty"))
		case errors.As(err, &maxErr):
			middleware.WriteError(w, r, apperrors.NewBadRequestError("Request body too large"))
		default:
			middleware.WriteError(w, r, apperrors.NewAppError(apperrors.CodeBadRequest, "Malformed JSON body", err.Error()))
		}
		return false
	}

	if err := h.validate.Struct(dst); err != nil {
		middleware.WriteError(w, r, fromDomain(err))
		return false
	}
	return true
}

func (h *NutritionHandlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	appErr := fromDomain(err)
	if appErr.StatusCode() >= http.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.String("request_id", middleware.RequestIDFromContext(r.Context())),
			zap.Error(err),
		)
	}
	middleware.WriteError(w, r, appErr)
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return fld.Name
	}
	return name
}
