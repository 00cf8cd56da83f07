package handlers

import (
	"net/http"

	"github.com/Fababum/portfolio/dto"
	"github.com/Fababum/portfolio/shared"
	"github.com/gofiber/fiber/v2"
)

type VisitorHandler struct {
	visitorSvc VisitorServiceInterface
}

func NewVisitorHandler(visitorSvc VisitorServiceInterface) *VisitorHandler {
	return &VisitorHandler{visitorSvc: visitorSvc}
}

// @Summary Track a page visit
// @Tags visitors
// @Accept json
// @Produce json
// @Param trackVisitRequest body dto.TrackVisitRequest true "Visitor id"
// @Success 200 {object} dto.MessageResponse
// @Failure 403 {object} dto.MessageResponse
// @Router /api/admin/track-visit [post]
func (h *VisitorHandler) TrackVisit(c *fiber.Ctx) error {
	var req dto.TrackVisitRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.ErrValidation("userId is required")
	}
	if req.UserID == "" {
		return shared.ErrValidation("userId is required")
	}
	if err := req.Validate(); err != nil {
		return shared.ErrValidation(firstValidationMessage(err))
	}

	err := h.visitorSvc.TrackVisit(c.UserContext(), req.UserID, req.IsReturning, shared.ClientIP(c))
	if err != nil {
		if appErr, ok := shared.GetAppError(err); ok && appErr.StatusCode == http.StatusForbidden {
			return shared.ResponseJSON(c, http.StatusForbidden, dto.MessageResponse{Success: false, Message: appErr.Message})
		}
		return shared.ErrInternal("Failed to track visit", err)
	}

	return shared.ResponseOK(c, dto.MessageResponse{Success: true})
}

// @Summary Visitor status
// @Description Always answers; failures report the visitor as active
// @Tags visitors
// @Produce json
// @Param userId query string true "Visitor id"
// @Success 200 {object} dto.StatusResponse
// @Router /api/admin/check-status [get]
func (h *VisitorHandler) CheckStatus(c *fiber.Ctx) error {
	userID := c.Query("userId")
	if userID == "" {
		return shared.ErrValidation("userId is required")
	}
	return shared.ResponseOK(c, h.visitorSvc.CheckStatus(c.UserContext(), userID))
}
