package handlers

import (
	"github.com/Fababum/portfolio/dto"
	"github.com/Fababum/portfolio/shared"
	"github.com/gofiber/fiber/v2"
)

type ChatHandler struct {
	chatSvc ChatServiceInterface
}

func NewChatHandler(chatSvc ChatServiceInterface) *ChatHandler {
	return &ChatHandler{chatSvc: chatSvc}
}

// @Summary Ask the portfolio assistant
// @Tags chat
// @Accept json
// @Produce json
// @Param chatRequest body dto.ChatRequest true "Message"
// @Success 200 {object} dto.ChatResponse
// @Router /api/chat [post]
func (h *ChatHandler) Chat(c *fiber.Ctx) error {
	var req dto.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.ErrValidation("Invalid message")
	}

	resp, err := h.chatSvc.Reply(c.UserContext(), req, shared.UserAgent(c))
	if err != nil {
		if _, ok := shared.GetAppError(err); ok {
			return err
		}
		return shared.ErrInternal("Something went wrong. Try again.", err)
	}
	return shared.ResponseOK(c, resp)
}
