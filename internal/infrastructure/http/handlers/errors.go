package handlers

import (
	stderrors "errors"

	"github.com/go-playground/validator/v10"

	"github.com/alchemorsel/nutrition/internal/domain/advice"
	"github.com/alchemorsel/nutrition/internal/domain/nutrition"
	apperrors "github.com/alchemorsel/nutrition/pkg/errors"
)

// fromDomain maps domain sentinels and validation failures to AppErrors
func fromDomain(err error) *apperrors.AppError {
	var appErr *apperrors.AppError
	var fieldErrs validator.ValidationErrors

	switch {
	case stderrors.As(err, &appErr):
		return appErr
	case stderrors.Is(err, nutrition.ErrInvalidProfile):
		return apperrors.NewInvalidProfileError(err)
	case stderrors.Is(err, nutrition.ErrMissingData):
		return apperrors.NewMissingDataError(err)
	case stderrors.Is(err, advice.ErrAIServiceUnavailable):
		return apperrors.NewAIServiceError("ai", err)
	case stderrors.Is(err, advice.ErrMalformedAIResponse):
		return apperrors.NewMalformedAIResponseError("ai", err)
	case stderrors.As(err, &fieldErrs):
		return validationError(fieldErrs)
	default:
		return apperrors.Wrap(err, "An unexpected error occurred")
	}
}

func validationError(fieldErrs validator.ValidationErrors) *apperrors.AppError {
	out := make([]apperrors.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, apperrors.ValidationError{
			Field:   fe.Namespace(),
			Tag:     fe.Tag(),
			Message: fe.Error(),
		})
	}
	return apperrors.NewValidationErrors(out)
}
