package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"salescrm/internal/apperr"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error      string              `json:"error"`
	Kind       string              `json:"kind,omitempty"`
	Fields     []apperr.FieldError `json:"fields,omitempty"`
	RolledBack bool                `json:"rolled_back,omitempty"`
	Retryable  bool                `json:"retryable,omitempty"`
}

func statusFor(err error) (int, string) {
	switch apperr.Kind(err) {
	case apperr.ErrValidation:
		return http.StatusUnprocessableEntity, "validation"
	case apperr.ErrAuthorization:
		return http.StatusForbidden, "authorization"
	case apperr.ErrNotFound:
		return http.StatusNotFound, "not_found"
	case apperr.ErrConflict:
		return http.StatusConflict, "conflict"
	case apperr.ErrTransition:
		return http.StatusBadRequest, "transition"
	case apperr.ErrNetwork:
		return http.StatusGatewayTimeout, "network"
	case apperr.ErrRemote:
		return http.StatusBadGateway, "remote"
	}
	return http.StatusInternalServerError, ""
}

func respondError(c *gin.Context, err error) {
	status, kind := statusFor(err)
	body := ErrorResponse{
		Error:      err.Error(),
		Kind:       kind,
		RolledBack: apperr.RolledBack(err),
		Retryable:  kind != "" && apperr.Retryable(err),
	}
	var verrs apperr.ValidationErrors
	if errors.As(err, &verrs) {
		body.Fields = verrs
	}
	c.JSON(status, body)
}
