package helpers

import (
	"errors"
	"fmt"
	"net/http"

	"league-auction/internal/auctionerrors"
	"league-auction/utils"

	"github.com/gin-gonic/gin"
)

// CallerHeader carries the identity of the caller, checked for admin operations
const CallerHeader = "X-Caller-ID"

// CallerID returns the caller identity of the request
func CallerID(c *gin.Context) string {
	return c.GetHeader(CallerHeader)
}

// HandleBindError sends a standardized JSON error for binding failures
func HandleBindError(c *gin.Context, handlerName string, err error) {
	wrappedErr := fmt.Errorf("invalid request payload: %w", err)
	utils.JSONError(c, http.StatusBadRequest, wrappedErr, "invalid request payload")
	utils.Warn(handlerName+": binding error", map[string]any{"error": err.Error()})
}

// MapErrorToHTTP maps domain/service errors to HTTP status code and message
func MapErrorToHTTP(err error) (int, string) {
	switch {
	case errors.Is(err, auctionerrors.ErrAuctionNotFound):
		return http.StatusNotFound, "auction not found"
	case errors.Is(err, auctionerrors.ErrTeamNotFound):
		return http.StatusNotFound, "team not found"
	case errors.Is(err, auctionerrors.ErrNoSettlement):
		return http.StatusNotFound, "auction has not been settled"
	case errors.Is(err, auctionerrors.ErrUnauthorized):
		return http.StatusForbidden, "admin capability required"
	case errors.Is(err, auctionerrors.ErrInvalidBid):
		return http.StatusBadRequest, "invalid bid details"
	case errors.Is(err, auctionerrors.ErrInvalidAuction):
		return http.StatusBadRequest, "invalid auction details"
	case errors.Is(err, auctionerrors.ErrInvalidPlayer):
		return http.StatusUnprocessableEntity, "invalid player"
	case errors.Is(err, auctionerrors.ErrBidTooLow):
		return http.StatusConflict, "bid amount too low"
	case errors.Is(err, auctionerrors.ErrAlreadyLeading):
		return http.StatusConflict, "team is already the highest bidder"
	case errors.Is(err, auctionerrors.ErrInsufficientBalance):
		return http.StatusConflict, "insufficient spendable balance"
	case errors.Is(err, auctionerrors.ErrClosedAuction):
		return http.StatusConflict, "auction is closed"
	case errors.Is(err, auctionerrors.ErrNotPending):
		return http.StatusConflict, "auction is not pending"
	case errors.Is(err, auctionerrors.ErrNotActive):
		return http.StatusConflict, "auction is not active"
	case errors.Is(err, auctionerrors.ErrNotCancellable):
		return http.StatusConflict, "auction cannot be cancelled"
	case errors.Is(err, auctionerrors.ErrInvariantViolation):
		return http.StatusInternalServerError, "auction frozen for review"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// RespondError maps err, writes the JSON error and logs it under handlerName.
// A too-low bid also reports the minimum acceptable amount.
func RespondError(c *gin.Context, handlerName string, err error, fields map[string]any) {
	status, message := MapErrorToHTTP(err)
	var details gin.H
	if minimum, ok := auctionerrors.MinimumAcceptable(err); ok {
		details = gin.H{"min_acceptable": minimum}
	}
	utils.JSONErrorDetails(c, status, fmt.Errorf("%s: %w", message, err), message, details)

	if fields == nil {
		fields = map[string]any{}
	}
	fields["handler"] = handlerName
	fields["status"] = status
	fields["error"] = err.Error()
	if status >= http.StatusInternalServerError {
		utils.Error(handlerName+": request failed", fields)
	} else {
		utils.Warn(handlerName+": request rejected", fields)
	}
}

// LogSuccess is a small helper to standardize logging of successful operations
func LogSuccess(handlerName, message string, ctx map[string]any) {
	utils.Info(handlerName+": "+message, ctx)
}
