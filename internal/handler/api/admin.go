package api

import (
	"errors"
	"io"
	"net/http"

	reqdto "slot-reservation-engine/internal/handler/dto/request"
	"slot-reservation-engine/internal/handler/httperr"
	"slot-reservation-engine/internal/usecase/commands"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	reconcile commands.ReconcileCommands
}

func NewAdminHandler(reconcile commands.ReconcileCommands) *AdminHandler {
	return &AdminHandler{reconcile: reconcile}
}

// @Summary Run reconciliation
// @Description Recount every activity's participants from the ledger; over-capacity activities are reported as alarms
// @Tags admin
// @Accept json
// @Produce json
// @Param request body reqdto.ReconcileRequest false "Options"
// @Success 200 {object} commands.ReconcileReport
// @Failure 400 {object} httperr.Response
// @Failure 500 {object} httperr.Response
// @Router /admin/reconcile [post]
func (h *AdminHandler) Reconcile(c *gin.Context) {
	var req reqdto.ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request format", nil)
		return
	}

	report, err := h.reconcile.Run(c.Request.Context(), commands.ReconcileOptions{DryRun: req.DryRun})
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Reconciliation failed", nil)
		return
	}
	c.JSON(http.StatusOK, report)
}
