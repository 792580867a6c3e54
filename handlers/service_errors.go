package handlers

import (
	"net/http"

	"github.com/upb/llm-footprint/services"
	"github.com/upb/llm-footprint/utils"
	"go.uber.org/zap"
)

// HandleServiceError maps domain errors to HTTP responses.
// Internal and unknown errors are logged in full and summarized to the caller.
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	message := services.GetErrorMessage(err)
	details := services.GetErrorDetails(err)
	errType := string(services.GetErrorType(err))

	var status int
	switch {
	case services.IsValidationError(err):
		status = http.StatusBadRequest

	case services.IsNotFoundError(err):
		status = http.StatusNotFound

	case services.IsConfigurationError(err):
		logger.Error("service misconfigured", zap.Error(err))
		status = http.StatusInternalServerError

	case services.IsClassificationError(err), services.IsExecutionError(err):
		// details carry the failing stage and fragment, or the execution cause
		status = http.StatusInternalServerError

	case services.IsInternalError(err):
		logger.Error("internal server error", zap.Error(err))
		if writeErr := utils.WriteInternalServerError(w, "An internal error occurred"); writeErr != nil {
			logger.Error("failed to write internal error response", zap.Error(writeErr))
		}
		return

	default:
		logger.Error("unhandled error type",
			zap.Error(err),
			zap.String("error_type", errType))
		if writeErr := utils.WriteInternalServerError(w, "An unexpected error occurred"); writeErr != nil {
			logger.Error("failed to write internal error response", zap.Error(writeErr))
		}
		return
	}

	if writeErr := utils.WriteError(w, status, errType, message, details); writeErr != nil {
		logger.Error("failed to write error response", zap.Error(writeErr))
	}
}

// HandleValidationError answers a request whose body failed to decode or validate.
// message is the caller-facing summary; field problems go to details.
func HandleValidationError(w http.ResponseWriter, message string, err error, logger *zap.Logger) {
	var details map[string]interface{}
	if fields := utils.GetValidationFields(err); len(fields) > 0 {
		details = make(map[string]interface{}, len(fields))
		for k, v := range fields {
			details[k] = v
		}
	}
	if writeErr := utils.WriteBadRequest(w, message, details); writeErr != nil {
		logger.Error("failed to write validation error response", zap.Error(writeErr))
	}
}
