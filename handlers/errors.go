package handlers

import (
	"errors"
	"net/http"

	"bookme/services/catalog"
	"bookme/services/directions"
	"bookme/services/ledger"
	"bookme/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError maps service errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ledger.ErrInvalidSlot):
		utils.JSONError(c, http.StatusUnprocessableEntity, "invalid slot", ledger.Reason(err))
	case errors.Is(err, ledger.ErrSlotConflict):
		utils.JSONError(c, http.StatusConflict, "slot already booked", "")
	case errors.Is(err, ledger.ErrNotFound):
		utils.JSONError(c, http.StatusNotFound, "not found", ledger.Reason(err))
	case errors.Is(err, ledger.ErrInvalidStatus), errors.Is(err, catalog.ErrInvalidRange):
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
	case errors.Is(err, directions.ErrDisabled):
		utils.JSONError(c, http.StatusServiceUnavailable, "travel time estimates are disabled", "")
	case errors.Is(err, ledger.ErrUpstreamUnavailable), errors.Is(err, directions.ErrUnavailable):
		utils.JSONError(c, http.StatusBadGateway, "upstream unavailable", err.Error())
	default:
		getLogger(c).Error("request failed", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "internal error", "")
	}
}

func badRequest(c *gin.Context, err error) {
	utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
}
