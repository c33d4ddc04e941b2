package handlers

import (
	"net/http"
	"strconv"

	"powerband/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	statusBandCreated = "band_created"
	statusBandUpdated = "band_updated"
	statusBandDeleted = "band_deleted"
	statusBandsReset  = "bands_reset"

	errListBands    = "failed to list bands"
	errResetBands   = "failed to reset bands"
	errInvalidBand  = "invalid band id"
)

// BandRequest carries the band create/update payload. Nil bounds mean the
// band is open-ended on that side; a nil target_pool means OFF.
type BandRequest struct {
	SortOrder   int               `json:"sort_order" binding:"required" example:"3"`
	MinPrice    *float64          `json:"min_price,omitempty" example:"10"`
	MaxPrice    *float64          `json:"max_price,omitempty" example:"20"`
	TargetPool  *string           `json:"target_pool,omitempty" example:"stratum+tcp://pool.example:3333"`
	ModeTargets map[string]string `json:"mode_targets,omitempty"`
}

func (r BandRequest) params() service.BandParams {
	return service.BandParams{
		SortOrder:   r.SortOrder,
		MinPrice:    r.MinPrice,
		MaxPrice:    r.MaxPrice,
		TargetPool:  r.TargetPool,
		ModeTargets: r.ModeTargets,
	}
}

func parseBandID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBand})
		return 0, false
	}
	return id, true
}

// @Summary      List price bands
// @Tags         bands
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, bands"
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/bands [get]
func (h *Handler) listBands(c *gin.Context) {
	ctx := c.Request.Context()
	bands, err := h.services.Bands.List(ctx)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errListBands, "bands_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(bands), "bands": bands})
}

// @Summary      Create a price band
// @Tags         bands
// @Accept       json
// @Produce      json
// @Param        body  body   BandRequest  true  "Band payload"
// @Success      201   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Router       /api/v1/bands [post]
func (h *Handler) createBand(c *gin.Context) {
	var req BandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	ctx := c.Request.Context()
	b, err := h.services.Bands.Create(ctx, req.params())
	if err != nil {
		if h.log != nil {
			h.log.Errorw("band_create_failed", "err", err)
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": statusBandCreated, "band": b})
}

// @Summary      Update a price band
// @Tags         bands
// @Accept       json
// @Produce      json
// @Param        id    path   int          true  "Band id"
// @Param        body  body   BandRequest  true  "Band payload"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Router       /api/v1/bands/{id} [put]
func (h *Handler) updateBand(c *gin.Context) {
	id, ok := parseBandID(c)
	if !ok {
		return
	}
	var req BandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	ctx := c.Request.Context()
	b, err := h.services.Bands.Update(ctx, id, req.params())
	if err != nil {
		if h.log != nil {
			h.log.Errorw("band_update_failed", "err", err, "id", id)
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusBandUpdated, "band": b})
}

// @Summary      Delete a price band
// @Tags         bands
// @Produce      json
// @Param        id   path    int  true  "Band id"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/bands/{id} [delete]
func (h *Handler) deleteBand(c *gin.Context) {
	id, ok := parseBandID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if err := h.services.Bands.Delete(ctx, id); err != nil {
		if h.log != nil {
			h.log.Errorw("band_delete_failed", "err", err, "id", id)
		}
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusBandDeleted})
}

// @Summary      Reset bands to the canonical default set
// @Tags         bands
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/bands/reset [post]
func (h *Handler) resetBands(c *gin.Context) {
	ctx := c.Request.Context()
	bands, err := h.services.Bands.Reset(ctx)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errResetBands, "bands_reset_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusBandsReset, "bands": bands})
}
