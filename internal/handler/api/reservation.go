package api

import (
	"net/http"

	reqdto "slot-reservation-engine/internal/handler/dto/request"
	resdto "slot-reservation-engine/internal/handler/dto/response"
	"slot-reservation-engine/internal/handler/httperr"
	"slot-reservation-engine/internal/usecase/commands"
	"slot-reservation-engine/internal/usecase/queries"

	"github.com/gin-gonic/gin"
)

type ReservationHandler struct {
	cmds commands.AdmissionCommands
	q    queries.AvailabilityQueries
}

func NewReservationHandler(cmds commands.AdmissionCommands, q queries.AvailabilityQueries) *ReservationHandler {
	return &ReservationHandler{cmds: cmds, q: q}
}

// @Summary Reserve a slot
// @Description Admit one reservation, optionally replacing all of the subject's existing ones
// @Tags reservations
// @Accept json
// @Produce json
// @Param request body reqdto.ReserveRequest true "Reserve request"
// @Success 201 {object} resdto.ReserveResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Failure 503 {object} httperr.Response
// @Router /reservations [post]
func (h *ReservationHandler) Reserve(c *gin.Context) {
	var req reqdto.ReserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request format", nil)
		return
	}

	result, err := h.cmds.Reserve(c.Request.Context(), req.ToParams())
	if err != nil {
		httperr.AbortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resdto.FromReserveResult(result))
}

// @Summary Replace a subject's reservations
// @Description Atomically swap the subject's whole reservation set; an empty list clears it
// @Tags reservations
// @Accept json
// @Produce json
// @Param subjectId path string true "Subject ID"
// @Param request body reqdto.ReplaceAllRequest true "New reservation set"
// @Success 200 {object} resdto.ReserveResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Failure 503 {object} httperr.Response
// @Router /subjects/{subjectId}/reservations [put]
func (h *ReservationHandler) ReplaceAll(c *gin.Context) {
	var req reqdto.ReplaceAllRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request format", nil)
		return
	}

	result, err := h.cmds.ReplaceAllForSubject(c.Request.Context(), c.Param("subjectId"), req.ToCommands())
	if err != nil {
		httperr.AbortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromReserveResult(result))
}

// @Summary Cancel a reservation
// @Description Remove the subject's reservation on an activity; removed=false when there was none
// @Tags reservations
// @Produce json
// @Param subjectId path string true "Subject ID"
// @Param activityKey path string true "Activity row id or textual id"
// @Success 200 {object} resdto.CancelResponse
// @Failure 400 {object} httperr.Response
// @Failure 503 {object} httperr.Response
// @Router /subjects/{subjectId}/reservations/{activityKey} [delete]
func (h *ReservationHandler) Cancel(c *gin.Context) {
	removed, err := h.cmds.Cancel(c.Request.Context(), c.Param("subjectId"), c.Param("activityKey"))
	if err != nil {
		httperr.AbortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.CancelResponse{Removed: removed})
}

// @Summary List a subject's reservations
// @Tags reservations
// @Produce json
// @Param subjectId path string true "Subject ID"
// @Success 200 {array} resdto.ReservationResponse
// @Failure 400 {object} httperr.Response
// @Router /subjects/{subjectId}/reservations [get]
func (h *ReservationHandler) ListBySubject(c *gin.Context) {
	views, err := h.q.ListSubjectReservations(c.Request.Context(), c.Param("subjectId"))
	if err != nil {
		httperr.AbortWithDomainError(c, err)
		return
	}
	resp, err := resdto.FromSubjectReservations(views)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reservations": resp})
}
