package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Payphone-Digital/accounts/internal/constants"
	apperrors "github.com/Payphone-Digital/accounts/internal/errors"
	"github.com/Payphone-Digital/accounts/pkg/logger"
	"github.com/Payphone-Digital/accounts/pkg/validation"
	"github.com/gin-gonic/gin"
)

// bindJSON binds the body into req and writes the 400 envelope on failure.
func bindJSON(c *gin.Context, ctx context.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		respondBindError(c, ctx, err)
		return false
	}
	return true
}

func respondBindError(c *gin.Context, ctx context.Context, err error) {
	if fields := validation.FieldErrors(err); fields != nil {
		logger.InfoWithContext(ctx, "Request failed validation").
			Any("fields", fields).
			Log()
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse(constants.MsgBadRequest, apperrors.CodeValidation, fields))
		return
	}

	logger.WarnWithContext(ctx, "Malformed request body").
		Err(err).
		Log()
	c.JSON(http.StatusBadRequest, constants.BuildErrorResponse(apperrors.ErrMalformed.Message, apperrors.CodeParse, nil))
}

// respondError maps a service error onto the error envelope. Internal errors
// never leak their cause.
func respondError(c *gin.Context, ctx context.Context, err error) {
	status := apperrors.ToHTTPStatus(err)

	var details []string
	if de := apperrors.GetDomainError(err); de != nil {
		details = de.Details
	}

	detail := apperrors.GetErrorMessage(err)
	if status >= http.StatusInternalServerError {
		logger.ErrorWithContext(ctx, "Request failed").
			StatusCode(status).
			Err(err).
			Log()
		switch {
		case status == http.StatusServiceUnavailable:
			detail = constants.MsgServiceUnavailable
		case !apperrors.IsDomainError(err):
			detail = constants.MsgInternalError
		}
	}

	var errs interface{}
	if len(details) > 0 {
		errs = details
	}
	c.JSON(status, constants.BuildErrorResponse(detail, apperrors.GetErrorCode(err), errs))
}

func respondSuccess(c *gin.Context, status int, detail string, data interface{}) {
	c.JSON(status, constants.BuildSuccessResponse(detail, data))
}

func parseID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "id must be a positive integer")
	}
	return uint(id), nil
}
