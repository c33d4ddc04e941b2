package handlers

import (
	"net/http"

	"powerband/internal/service"

	"github.com/gin-gonic/gin"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK         = "ok"
	statusUpdated    = "updated"
	statusEnrolled   = "enrolled"
	statusUnenrolled = "unenrolled"
	statusTriggered  = "evaluation_triggered"

	errGetStatus       = "failed to load status"
	errGetSettings     = "failed to load settings"
	errUpdateSettings  = "failed to update settings"
	errListMiners      = "failed to list miners"
	errInvalidBodyPref = "invalid body: "
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// SettingsRequest is the partial settings update payload.
type SettingsRequest struct {
	// Enable or disable strategy-driven control
	Enabled *bool `json:"enabled,omitempty" example:"true"`
	// Enable single-miner-survives mode in the most expensive band
	ChampionModeEnabled *bool `json:"champion_mode_enabled,omitempty" example:"false"`
}

// EnrollRequest adds a miner to strategy control.
type EnrollRequest struct {
	ID      string `json:"id" binding:"required" example:"rack2-07"`
	Type    string `json:"type" binding:"required" example:"antminer"`
	Address string `json:"address" binding:"required" example:"10.0.4.17:4028"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Strategy status snapshot
// @Tags         strategy
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/strategy/status [get]
func (h *Handler) getStatus(c *gin.Context) {
	ctx := c.Request.Context()
	st, err := h.services.Monitoring.Status(ctx)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetStatus, "status_load_failed", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Strategy settings
// @Tags         strategy
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/strategy/settings [get]
func (h *Handler) getSettings(c *gin.Context) {
	ctx := c.Request.Context()
	st, err := h.services.Strategy.Settings(ctx)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetSettings, "settings_load_failed", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Update strategy settings
// @Description  Partial update; omitted fields are left unchanged
// @Tags         strategy
// @Accept       json
// @Produce      json
// @Param        body  body   SettingsRequest  true  "Settings payload"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/strategy/settings [put]
func (h *Handler) updateSettings(c *gin.Context) {
	var req SettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	ctx := c.Request.Context()
	st, err := h.services.Strategy.UpdateSettings(ctx, service.SettingsParams{
		Enabled:             req.Enabled,
		ChampionModeEnabled: req.ChampionModeEnabled,
	})
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errUpdateSettings, "settings_update_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusUpdated, "settings": st})
}

// @Summary      Request manual re-evaluation
// @Tags         strategy
// @Produce      json
// @Success      202  {object}  map[string]string
// @Router       /api/v1/strategy/evaluate [post]
func (h *Handler) requestEvaluation(c *gin.Context) {
	h.services.Engine.Kick("manual request")
	c.JSON(http.StatusAccepted, gin.H{"status": statusTriggered})
}

// @Summary      List enrolled miners
// @Tags         strategy
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, miners"
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/strategy/miners [get]
func (h *Handler) listMiners(c *gin.Context) {
	ctx := c.Request.Context()
	miners, err := h.services.Strategy.Miners(ctx)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errListMiners, "miners_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(miners), "miners": miners})
}

// @Summary      Enroll a miner
// @Tags         strategy
// @Accept       json
// @Produce      json
// @Param        body  body   EnrollRequest  true  "Miner payload"
// @Success      201   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Router       /api/v1/strategy/miners [post]
func (h *Handler) enrollMiner(c *gin.Context) {
	var req EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	ctx := c.Request.Context()
	m, err := h.services.Strategy.Enroll(ctx, service.EnrollParams{
		ID:      req.ID,
		Type:    req.Type,
		Address: req.Address,
	})
	if err != nil {
		if h.log != nil {
			h.log.Errorw("miner_enroll_failed", "err", err, "id", req.ID)
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": statusEnrolled, "miner": m})
}

// @Summary      Unenroll a miner
// @Tags         strategy
// @Produce      json
// @Param        id   path    string  true  "Miner id"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/strategy/miners/{id} [delete]
func (h *Handler) unenrollMiner(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	if err := h.services.Strategy.Unenroll(ctx, id); err != nil {
		if h.log != nil {
			h.log.Errorw("miner_unenroll_failed", "err", err, "id", id)
		}
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusUnenrolled})
}
