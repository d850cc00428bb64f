package api

import (
	"log/slog"
	"net/http"

	resdto "slot-reservation-engine/internal/handler/dto/response"
	"slot-reservation-engine/internal/handler/httperr"
	"slot-reservation-engine/internal/usecase/queries"

	"github.com/gin-gonic/gin"
)

type AvailabilityHandler struct {
	q queries.AvailabilityQueries
}

func NewAvailabilityHandler(q queries.AvailabilityQueries) *AvailabilityHandler {
	return &AvailabilityHandler{q: q}
}

// @Summary Activity availability
// @Description Remaining spots for one activity (capacity - reserved, floored at 0)
// @Tags availability
// @Produce json
// @Param activityKey path string true "Activity row id or textual id"
// @Success 200 {object} resdto.AvailabilityResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /activities/{activityKey}/availability [get]
func (h *AvailabilityHandler) Get(c *gin.Context) {
	view, err := h.q.GetAvailability(c.Request.Context(), c.Param("activityKey"))
	if err != nil {
		httperr.AbortWithDomainError(c, err)
		return
	}
	resp, err := resdto.FromAvailabilityView(view)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary All availability
// @Description Remaining spots keyed by canonical slot key ("activity#slot")
// @Tags availability
// @Produce json
// @Success 200 {object} map[string]int
// @Failure 500 {object} httperr.Response
// @Router /availability [get]
func (h *AvailabilityHandler) GetAll(c *gin.Context) {
	m, err := h.q.GetAllAvailability(c.Request.Context())
	if err != nil {
		slog.Error("get all availability failed", "error", err)
		httperr.AbortWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"availability": resdto.FromAvailabilityMap(m)})
}

// @Summary Slot listing
// @Description Every time slot with its activity's title, capacity and remaining spots
// @Tags availability
// @Produce json
// @Success 200 {array} resdto.SlotAvailabilityResponse
// @Failure 500 {object} httperr.Response
// @Router /slots [get]
func (h *AvailabilityHandler) ListSlots(c *gin.Context) {
	views, err := h.q.ListAvailability(c.Request.Context())
	if err != nil {
		slog.Error("list slots failed", "error", err)
		httperr.AbortWithDomainError(c, err)
		return
	}
	resp, err := resdto.FromSlotAvailability(views)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"slots": resp})
}
