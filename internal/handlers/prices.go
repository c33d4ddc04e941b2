package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	errPriceTimeline = "failed to load price timeline"
	errCurrentPrice  = "failed to load current price"
)

// @Summary      Price timeline (display only)
// @Tags         prices
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, slots"
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/prices [get]
func (h *Handler) getPriceTimeline(c *gin.Context) {
	ctx := c.Request.Context()
	slots, err := h.services.Prices.Timeline(ctx)
	if err != nil {
		h.logAndJSONError(c, http.StatusBadGateway, errPriceTimeline, "price_timeline_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(slots), "slots": slots})
}

// @Summary      Current and next price slot
// @Tags         prices
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "current, next"
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/prices/current [get]
func (h *Handler) getCurrentPrice(c *gin.Context) {
	ctx := c.Request.Context()
	current, next, err := h.services.Prices.CurrentAndNext(ctx)
	if err != nil {
		h.logAndJSONError(c, http.StatusBadGateway, errCurrentPrice, "price_current_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"current": current, "next": next})
}
