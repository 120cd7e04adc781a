package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"streamraffle-backend/internal/common/middleware"
	drawservice "streamraffle-backend/internal/features/draw/service"
)

type DrawHandler struct {
	service drawservice.DrawService
}

func NewDrawHandler(service drawservice.DrawService) *DrawHandler {
	return &DrawHandler{service: service}
}

func (h *DrawHandler) RegisterRoutes(router *gin.RouterGroup) {
	giveaways := router.Group("/giveaways")
	{
		giveaways.POST("/:id/draw", h.draw)
		giveaways.POST("/:id/repick", h.repick)
		giveaways.GET("/:id/draws", h.listDraws)
		giveaways.GET("/:id/winner", h.currentWinner)
	}
}

// @Summary Run a verifiable draw
// @Description Snapshots the entry population, requests a signed random index and records the winner; the giveaway transitions to DONE
// @Tags draws
// @Produce json
// @Param id path string true "Giveaway ID"
// @Success 200 {object} models.DrawRecord
// @Failure 409 {object} middleware.ErrorResponse "Draw in progress or not enough entries"
// @Failure 503 {object} middleware.ErrorResponse "Randomness provider not configured"
// @Router /giveaways/{id}/draw [post]
func (h *DrawHandler) draw(c *gin.Context) {
	record, err := h.service.Draw(c.Request.Context(), c.Param("id"), middleware.AdminID(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// @Summary Repick the winner
// @Description Invalidates the current winner and redraws from the remaining entries
// @Tags draws
// @Produce json
// @Param id path string true "Giveaway ID"
// @Success 200 {object} models.DrawRecord
// @Failure 404 {object} middleware.ErrorResponse "No winner to repick"
// @Failure 409 {object} middleware.ErrorResponse "Draw in progress or not enough entries"
// @Router /giveaways/{id}/repick [post]
func (h *DrawHandler) repick(c *gin.Context) {
	record, err := h.service.Repick(c.Request.Context(), c.Param("id"), middleware.AdminID(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// @Summary List draw records
// @Description Full audit trail, oldest first, including repicked records
// @Tags draws
// @Produce json
// @Param id path string true "Giveaway ID"
// @Success 200 {array} models.DrawRecord
// @Router /giveaways/{id}/draws [get]
func (h *DrawHandler) listDraws(c *gin.Context) {
	records, err := h.service.ListDraws(c.Request.Context(), c.Param("id"), middleware.AdminID(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, records)
}

// @Summary Get the current winner
// @Tags draws
// @Produce json
// @Param id path string true "Giveaway ID"
// @Success 200 {object} models.DrawRecord
// @Failure 404 {object} middleware.ErrorResponse
// @Router /giveaways/{id}/winner [get]
func (h *DrawHandler) currentWinner(c *gin.Context) {
	record, err := h.service.CurrentWinner(c.Request.Context(), c.Param("id"), middleware.AdminID(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, record)
}
