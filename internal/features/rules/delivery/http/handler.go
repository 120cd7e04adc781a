package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "streamraffle-backend/internal/common/errors"
	"streamraffle-backend/internal/common/middleware"
	"streamraffle-backend/internal/features/rules/models"
	rulesservice "streamraffle-backend/internal/features/rules/service"
)

type RuleHandler struct {
	service rulesservice.RuleService
}

func NewRuleHandler(service rulesservice.RuleService) *RuleHandler {
	return &RuleHandler{service: service}
}

func (h *RuleHandler) RegisterRoutes(router *gin.RouterGroup) {
	rules := router.Group("/rules")
	{
		rules.GET("/roles", h.listRoleRules)
		rules.PUT("/roles", h.setRoleRule)
		rules.GET("/donations", h.listDonationRules)
		rules.PUT("/donations", h.setDonationRule)
	}
}

// @Summary List role ticket rules
// @Tags rules
// @Produce json
// @Success 200 {array} models.RoleRule
// @Router /rules/roles [get]
func (h *RuleHandler) listRoleRules(c *gin.Context) {
	rules, err := h.service.ListRoleRules(c.Request.Context(), middleware.AdminID(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, rules)
}

// @Summary Set a role ticket rule
// @Description Upserts the admin's default tickets-per-role; non-sub variants share the NON_SUB key
// @Tags rules
// @Accept json
// @Produce json
// @Param input body models.RoleRule true "Role rule"
// @Success 200 {object} models.RoleRule
// @Failure 400 {object} middleware.ErrorResponse
// @Router /rules/roles [put]
func (h *RuleHandler) setRoleRule(c *gin.Context) {
	var rule models.RoleRule
	if err := c.ShouldBindJSON(&rule); err != nil {
		c.Error(apperrors.NewValidationError("body", err.Error()))
		return
	}
	rule.AdminID = middleware.AdminID(c)

	if err := h.service.SetRoleRule(c.Request.Context(), &rule); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, rule)
}

// @Summary List donation ticket rules
// @Tags rules
// @Produce json
// @Success 200 {array} models.DonationRule
// @Router /rules/donations [get]
func (h *RuleHandler) listDonationRules(c *gin.Context) {
	rules, err := h.service.ListDonationRules(c.Request.Context(), middleware.AdminID(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, rules)
}

// @Summary Set a donation ticket rule
// @Description Upserts the admin's default tickets-per-unit-size conversion for one donation unit type
// @Tags rules
// @Accept json
// @Produce json
// @Param input body models.DonationRule true "Donation rule"
// @Success 200 {object} models.DonationRule
// @Failure 400 {object} middleware.ErrorResponse
// @Router /rules/donations [put]
func (h *RuleHandler) setDonationRule(c *gin.Context) {
	var rule models.DonationRule
	if err := c.ShouldBindJSON(&rule); err != nil {
		c.Error(apperrors.NewValidationError("body", err.Error()))
		return
	}
	rule.AdminID = middleware.AdminID(c)

	if err := h.service.SetDonationRule(c.Request.Context(), &rule); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, rule)
}
