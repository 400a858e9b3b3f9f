package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	awarddomain "github.com/smallbiznis/lotbid/internal/award/domain"
	invitationdomain "github.com/smallbiznis/lotbid/internal/invitation/domain"
	lotdomain "github.com/smallbiznis/lotbid/internal/lot/domain"
	offerdomain "github.com/smallbiznis/lotbid/internal/offer/domain"
	rounddomain "github.com/smallbiznis/lotbid/internal/round/domain"
	settlementdomain "github.com/smallbiznis/lotbid/internal/settlement/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
	Retry   string            `json:"retry,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrConflict           = errors.New("conflict")
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrServiceUnavailable = errors.New("service_unavailable")
	ErrRateLimited        = errors.New("rate_limited")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	// Checked before the cause so a wrapped storage error still asks for a retry.
	if errors.Is(err, settlementdomain.ErrPartialSettlement) {
		return http.StatusInternalServerError, errorPayload{
			Type:    "partial_settlement_failure",
			Message: "offer accepted but award incomplete",
			Retry:   "award",
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, lotdomain.ErrInvalidOrganization):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: conflictMessage(err),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrServiceUnavailable),
		errors.Is(err, awarddomain.ErrNoRoundAvailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog reports the response type and a stable error code for
// request logs.
func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	code := payload.Type
	if len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	} else if payload.Type == "conflict" {
		code = payload.Message
	}
	return payload.Type, code
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, lotdomain.ErrInvalidID),
		errors.Is(err, rounddomain.ErrInvalidLotID),
		errors.Is(err, rounddomain.ErrInvalidScope),
		errors.Is(err, settlementdomain.ErrNotTakeAllOffer),
		errors.Is(err, invitationdomain.ErrInvalidToken):
		return true
	default:
		return false
	}
}

var conflictErrors = []error{
	ErrConflict,
	awarddomain.ErrStorageConflict,
	awarddomain.ErrDuplicateWinner,
	rounddomain.ErrRoundConflict,
	settlementdomain.ErrSettlementInProgress,
	settlementdomain.ErrOfferRejected,
	settlementdomain.ErrOfferNotAccepted,
	settlementdomain.ErrUnsupportedScope,
}

func isConflictError(err error) bool {
	for _, target := range conflictErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func conflictMessage(err error) string {
	for _, target := range conflictErrors {
		if errors.Is(err, target) {
			return target.Error()
		}
	}
	return "conflict"
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, lotdomain.ErrLotNotFound),
		errors.Is(err, offerdomain.ErrOfferNotFound),
		errors.Is(err, rounddomain.ErrRoundNotFound),
		errors.Is(err, rounddomain.ErrNoRound),
		errors.Is(err, invitationdomain.ErrInvitationNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	default:
		return err.Error()
	}
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	default:
		return "invalid value"
	}
}
