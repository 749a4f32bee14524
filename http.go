package identity

import (
	stderrors "errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// API responses carry a status discriminator so clients can branch without
// inspecting HTTP codes. Kept for wire compatibility with existing clients.
const (
	responseSuccess = "success"
	responseFailure = "failure"
)

// ErrorResponse is the JSON body sent for any failed request.
type ErrorResponse struct {
	Status     string            `json:"status"`
	Message    string            `json:"message"`
	TextCode   string            `json:"code,omitempty"`
	Validation map[string]string `json:"validation,omitempty"`
}

// httpStatusFor maps an error category to the response status code.
func httpStatusFor(category errors.Category) int {
	switch category {
	case errors.CategoryAuth:
		return http.StatusUnauthorized
	case errors.CategoryAuthz:
		return http.StatusForbidden
	case errors.CategoryNotFound:
		return http.StatusNotFound
	case errors.CategoryConflict:
		return http.StatusConflict
	case errors.CategoryValidation, errors.CategoryBadInput:
		return http.StatusBadRequest
	case errors.CategoryRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// JSONErrorHandler renders any error as the failure envelope. Internal
// errors are not echoed back to the client.
func JSONErrorHandler(logger Logger) router.ErrorHandler {
	if logger == nil {
		logger = defLogger{}
	}
	return func(c router.Context, err error) error {
		var richErr *errors.Error
		if !errors.As(err, &richErr) {
			richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
				WithCode(errors.CodeInternal)
		}

		logger.Info(
			"request error handler",
			"error", richErr.Message,
			"category", richErr.Category,
			"details", print.MaybePrettyJSON(richErr.Metadata),
		)

		status := httpStatusFor(richErr.Category)

		body := ErrorResponse{
			Status:   responseFailure,
			Message:  richErr.Message,
			TextCode: richErr.TextCode,
		}
		if status == http.StatusInternalServerError {
			body.Message = "An unexpected server error occurred"
			body.TextCode = ""
		}

		return c.JSON(status, body)
	}
}

// ValidateStringEquals will check that both values match
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return stderrors.New("values must match")
		}
		return nil
	}
}

// FormatValidationErrorToMap flattens ozzo validation errors into a
// field to message map for the response body.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}

	var verrs validation.Errors
	if stderrors.As(err, &verrs) {
		for field, ferr := range verrs {
			if ferr != nil {
				out[field] = ferr.Error()
			}
		}
		return out
	}

	out["error"] = err.Error()
	return out
}
