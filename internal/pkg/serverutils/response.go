package serverutils

import (
	"errors"
	"fmt"
	"strings"

	"llm-chat-be/internal/dto"
	"llm-chat-be/internal/pkg/apperror"
	"llm-chat-be/internal/pkg/logger"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateRequest runs struct tag validation and reports the first failing field.
func ValidateRequest(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		fe := validationErrors[0]
		return apperror.WithMessage(apperror.ErrInvalidRequest,
			fmt.Sprintf("%s failed on '%s'", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return apperror.Wrap(apperror.ErrInvalidRequest, err)
}

// ErrorHandler renders every error as the uniform failure body. Causes are logged, never sent.
func ErrorHandler(log logger.ILogger) fiber.ErrorHandler {
	return func(ctx *fiber.Ctx, err error) error {
		reqId, _ := ctx.Locals(requestid.ConfigDefault.ContextKey).(string)

		if appErr, ok := apperror.As(err); ok {
			if appErr.Status >= fiber.StatusInternalServerError {
				log.Error("HTTP", appErr.Message, map[string]interface{}{
					"code":       string(appErr.Code),
					"error":      err.Error(),
					"path":       ctx.Path(),
					"request_id": reqId,
				})
			}
			return ctx.Status(appErr.Status).JSON(dto.ErrorResponse{
				Success:   false,
				Error:     string(appErr.PublicCode()),
				Message:   appErr.PublicMessage(),
				Retryable: appErr.Retryable,
				RequestId: reqId,
			})
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			code := apperror.CodeInternal
			if fiberErr.Code < fiber.StatusInternalServerError {
				code = apperror.CodeInvalidRequest
			}
			return ctx.Status(fiberErr.Code).JSON(dto.ErrorResponse{
				Success:   false,
				Error:     string(code),
				Message:   fiberErr.Message,
				RequestId: reqId,
			})
		}

		log.Error("HTTP", "Unhandled error", map[string]interface{}{
			"error":      err.Error(),
			"path":       ctx.Path(),
			"request_id": reqId,
		})
		return ctx.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Success:   false,
			Error:     string(apperror.CodeInternal),
			Message:   "internal server error",
			RequestId: reqId,
		})
	}
}
