package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "streamraffle-backend/internal/common/errors"
	"streamraffle-backend/internal/common/middleware"
	entryservice "streamraffle-backend/internal/features/entry/service"
	"streamraffle-backend/internal/features/giveaway/models"
	giveawayservice "streamraffle-backend/internal/features/giveaway/service"
)

type GiveawayHandler struct {
	service giveawayservice.GiveawayService
	entries entryservice.EntryService
}

func NewGiveawayHandler(service giveawayservice.GiveawayService, entries entryservice.EntryService) *GiveawayHandler {
	return &GiveawayHandler{
		service: service,
		entries: entries,
	}
}

func (h *GiveawayHandler) RegisterRoutes(router *gin.RouterGroup) {
	giveaways := router.Group("/giveaways")
	{
		giveaways.POST("", h.create)
		giveaways.GET("", h.list)
		giveaways.GET("/:id", h.getByID)
		giveaways.PUT("/:id", h.update)
		giveaways.DELETE("/:id", h.delete)
		giveaways.PATCH("/:id/status", h.updateStatus)
		giveaways.GET("/:id/entries", h.listEntries)
	}
}

// GiveawayRequest is the payload for creating or updating a giveaway.
type GiveawayRequest struct {
	Name              string                    `json:"name" binding:"required"`
	Keyword           string                    `json:"keyword" binding:"required"`
	Platforms         []models.Platform         `json:"platforms" binding:"required"`
	AllowedRoles      []models.Role             `json:"allowed_roles"`
	DonationConfigs   []models.DonationConfig   `json:"donation_configs"`
	RoleOverrides     []models.RoleOverride     `json:"role_overrides"`
	DonationOverrides []models.DonationOverride `json:"donation_overrides"`
	Status            models.GiveawayStatus     `json:"status"`
}

type statusRequest struct {
	Status models.GiveawayStatus `json:"status" binding:"required"`
}

func (r *GiveawayRequest) toModel(adminID int64) *models.Giveaway {
	return &models.Giveaway{
		AdminID:           adminID,
		Name:              r.Name,
		Keyword:           r.Keyword,
		Platforms:         r.Platforms,
		AllowedRoles:      r.AllowedRoles,
		DonationConfigs:   r.DonationConfigs,
		RoleOverrides:     r.RoleOverrides,
		DonationOverrides: r.DonationOverrides,
		Status:            r.Status,
	}
}

// @Summary Create a giveaway
// @Description Creates a giveaway in DRAFT status, or opens it immediately when status=open is requested
// @Tags giveaways
// @Accept json
// @Produce json
// @Param input body GiveawayRequest true "Giveaway definition"
// @Success 201 {object} models.Giveaway
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 409 {object} middleware.ErrorResponse "Another giveaway is already open"
// @Router /giveaways [post]
func (h *GiveawayHandler) create(c *gin.Context) {
	var input GiveawayRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.Error(apperrors.NewValidationError("body", err.Error()))
		return
	}

	giveaway, err := h.service.Create(c.Request.Context(), input.toModel(middleware.AdminID(c)))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, giveaway)
}

// @Summary List giveaways
// @Tags giveaways
// @Produce json
// @Success 200 {array} models.Giveaway
// @Router /giveaways [get]
func (h *GiveawayHandler) list(c *gin.Context) {
	giveaways, err := h.service.List(c.Request.Context(), middleware.AdminID(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, giveaways)
}

// @Summary Get a giveaway
// @Tags giveaways
// @Produce json
// @Param id path string true "Giveaway ID"
// @Success 200 {object} models.Giveaway
// @Failure 404 {object} middleware.ErrorResponse
// @Router /giveaways/{id} [get]
func (h *GiveawayHandler) getByID(c *gin.Context) {
	giveaway, err := h.service.Get(c.Request.Context(), c.Param("id"), middleware.AdminID(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, giveaway)
}

// @Summary Update a draft giveaway
// @Tags giveaways
// @Accept json
// @Produce json
// @Param id path string true "Giveaway ID"
// @Param input body GiveawayRequest true "Giveaway definition"
// @Success 200 {object} models.Giveaway
// @Failure 400 {object} middleware.ErrorResponse "Not a draft"
// @Router /giveaways/{id} [put]
func (h *GiveawayHandler) update(c *gin.Context) {
	var input GiveawayRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.Error(apperrors.NewValidationError("body", err.Error()))
		return
	}

	giveaway := input.toModel(middleware.AdminID(c))
	giveaway.ID = c.Param("id")

	updated, err := h.service.Update(c.Request.Context(), giveaway)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// @Summary Delete a giveaway
// @Description Removes the giveaway with its entries, draw records, keyword index and dedup state
// @Tags giveaways
// @Param id path string true "Giveaway ID"
// @Success 204
// @Failure 404 {object} middleware.ErrorResponse
// @Router /giveaways/{id} [delete]
func (h *GiveawayHandler) delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), middleware.AdminID(c)); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Transition giveaway status
// @Description draft->open publishes the keyword index; open->done retires it
// @Tags giveaways
// @Accept json
// @Produce json
// @Param id path string true "Giveaway ID"
// @Param input body statusRequest true "Target status"
// @Success 200 {object} models.Giveaway
// @Failure 400 {object} middleware.ErrorResponse "Invalid transition"
// @Failure 409 {object} middleware.ErrorResponse "Another giveaway is already open"
// @Router /giveaways/{id}/status [patch]
func (h *GiveawayHandler) updateStatus(c *gin.Context) {
	var input statusRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.Error(apperrors.NewValidationError("body", err.Error()))
		return
	}

	giveaway, err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), middleware.AdminID(c), input.Status)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, giveaway)
}

// @Summary List entries for a giveaway
// @Tags giveaways
// @Produce json
// @Param id path string true "Giveaway ID"
// @Success 200 {array} entrymodels.Entry
// @Failure 404 {object} middleware.ErrorResponse
// @Router /giveaways/{id}/entries [get]
func (h *GiveawayHandler) listEntries(c *gin.Context) {
	entries, err := h.entries.ListEntries(c.Request.Context(), c.Param("id"), middleware.AdminID(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, entries)
}
