package server

import (
	// Go Internal Packages
	"net/http"

	// Local Packages
	errors "coinnet/errors"
	models "coinnet/models"
	lifecycle "coinnet/services/lifecycle"

	// External Packages
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type errorBody struct {
	Error       string              `json:"error"`
	Message     string              `json:"message"`
	Fields      []errors.FieldError `json:"fields,omitempty"`
	Transaction *models.Transaction `json:"transaction,omitempty"`
}

// StatusOf maps an error kind to its HTTP status.
func StatusOf(kind errors.Kind) int {
	switch kind {
	case errors.Invalid, errors.InvalidAmount:
		return http.StatusBadRequest
	case errors.AmountOutOfBounds, errors.ProviderUnavailable, errors.LimitExceeded:
		return http.StatusUnprocessableEntity
	case errors.Forbidden:
		return http.StatusForbidden
	case errors.NotFound:
		return http.StatusNotFound
	case errors.InvalidTransition, errors.Conflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(c *gin.Context, err error) {
	kind := errors.KindOf(err)
	status := StatusOf(kind)

	body := errorBody{Error: kind.String(), Message: err.Error(), Fields: errors.FieldsOf(err)}
	if status == http.StatusInternalServerError {
		s.Logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		body = errorBody{Error: errors.Internal.String(), Message: "internal error"}
	}

	// Hand back the committed state so the caller can resynchronise.
	var te *lifecycle.TransitionError
	if errors.As(err, &te) {
		current := te.Current
		body.Transaction = &current
	}
	c.AbortWithStatusJSON(status, body)
}
