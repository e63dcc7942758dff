package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sparks-2204/course-recommendation-system/internal/app/models/dto"
	"github.com/sparks-2204/course-recommendation-system/internal/pkg/apperrors"
	"github.com/sparks-2204/course-recommendation-system/internal/pkg/logger"
)

// reasonCodes maps registration denial reasons to response error codes
var reasonCodes = map[string]dto.ErrorCode{
	"already enrolled":      dto.ErrorCodeAlreadyEnrolled,
	"full":                  dto.ErrorCodeCourseFull,
	"conflict":              dto.ErrorCodeScheduleConflict,
	"prerequisites not met": dto.ErrorCodePrerequisitesMissing,
	"not enrolled":          dto.ErrorCodeNotEnrolled,
}

// customParts returns the message and details carried by a CustomError, or fallback
func customParts(err error, fallback string) (string, map[string]interface{}) {
	var ce *apperrors.CustomError
	if errors.As(err, &ce) {
		msg := ce.Message
		if ce.StatusMsg != "" {
			msg = ce.StatusMsg
		}
		if msg == "" {
			msg = fallback
		}
		return msg, ce.Details
	}
	return fallback, nil
}

func writeError(c *gin.Context, status int, detail *dto.ErrorDetail) {
	c.AbortWithStatusJSON(status, dto.NewErrorResponse(detail))
}

// HandleAPIError handles common API errors and returns appropriate responses
func HandleAPIError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrLedgerInconsistent):
		// already logged and alerted by the registration service
		msg, details := customParts(err, "Enrollment ledger inconsistent")
		detail := dto.NewErrorDetail(dto.ErrorCodeLedgerInconsistent, msg).
			WithSeverity(dto.ErrorSeverityCritical)
		if details != nil {
			detail.WithDetails(details)
		}
		writeError(c, http.StatusInternalServerError, detail)
		return

	case errors.Is(err, apperrors.ErrConflict):
		reason, _ := apperrors.ConflictReason(err)
		msg, details := customParts(err, "Conflict")
		code, ok := reasonCodes[reason]
		if !ok {
			code = dto.ErrorCodeConflict
		}
		detail := dto.NewErrorDetail(code, msg).WithReason(reason)
		if details != nil {
			detail.WithDetails(details)
		}
		writeError(c, http.StatusConflict, detail)
		return

	case errors.Is(err, apperrors.ErrCourseNotFound):
		detail := dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, "Course not found").WithReason("not found")
		writeError(c, http.StatusNotFound, detail)
		return
	case errors.Is(err, apperrors.ErrStudentNotFound):
		writeError(c, http.StatusNotFound, dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, "Student not found"))
		return
	case errors.Is(err, apperrors.ErrUserNotFound):
		writeError(c, http.StatusNotFound, dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, "User not found"))
		return
	case errors.Is(err, apperrors.ErrResourceNotFound):
		msg, _ := customParts(err, "Resource not found")
		writeError(c, http.StatusNotFound, dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, msg))
		return

	case errors.Is(err, apperrors.ErrPermissionDenied):
		msg, _ := customParts(err, "Permission denied")
		writeError(c, http.StatusForbidden, dto.NewErrorDetail(dto.ErrorCodeForbidden, msg))
		return
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		writeError(c, http.StatusUnauthorized, dto.NewErrorDetail(dto.ErrorCodeInvalidCredentials, "Invalid credentials"))
		return
	case errors.Is(err, apperrors.ErrTokenExpired):
		writeError(c, http.StatusUnauthorized, dto.NewErrorDetail(dto.ErrorCodeExpiredToken, "Token expired"))
		return
	case errors.Is(err, apperrors.ErrTokenInvalid):
		writeError(c, http.StatusUnauthorized, dto.NewErrorDetail(dto.ErrorCodeInvalidToken, "Invalid token"))
		return

	case errors.Is(err, apperrors.ErrValidationFailed):
		writeError(c, http.StatusBadRequest, dto.NewErrorDetail(dto.ErrorCodeValidationFailed, err.Error()))
		return
	case errors.Is(err, apperrors.ErrBadRequest):
		msg, _ := customParts(err, "Bad request")
		writeError(c, http.StatusBadRequest, dto.NewErrorDetail(dto.ErrorCodeBadRequest, msg))
		return

	case errors.Is(err, apperrors.ErrEmailAlreadyExists):
		writeError(c, http.StatusConflict, dto.NewErrorDetail(dto.ErrorCodeResourceAlreadyExists, "Email already exists"))
		return
	case errors.Is(err, apperrors.ErrStudentIDExists):
		writeError(c, http.StatusConflict, dto.NewErrorDetail(dto.ErrorCodeResourceAlreadyExists, "Student ID already exists"))
		return
	case errors.Is(err, apperrors.ErrCourseAlreadyExists):
		writeError(c, http.StatusConflict, dto.NewErrorDetail(dto.ErrorCodeResourceAlreadyExists, "Course with this code already exists for this semester"))
		return
	case errors.Is(err, apperrors.ErrResourceAlreadyExists):
		writeError(c, http.StatusConflict, dto.NewErrorDetail(dto.ErrorCodeResourceAlreadyExists, "Resource already exists"))
		return

	default:
		logger.Error().Err(err).Str("path", c.FullPath()).Msg("Unhandled error")
		writeError(c, http.StatusInternalServerError, dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error"))
		return
	}
}
