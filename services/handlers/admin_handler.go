package handlers

import (
	"net/http"

	"github.com/Fababum/portfolio/dto"
	"github.com/Fababum/portfolio/middleware"
	"github.com/Fababum/portfolio/shared"
	"github.com/gofiber/fiber/v2"
)

type AdminHandler struct {
	adminSvc    AdminServiceInterface
	sessionSvc  SessionServiceInterface
	visitorSvc  VisitorServiceInterface
	limiter     RateLimitResetter
	loginBucket string
}

func NewAdminHandler(adminSvc AdminServiceInterface, sessionSvc SessionServiceInterface, visitorSvc VisitorServiceInterface, limiter RateLimitResetter, loginBucket string) *AdminHandler {
	return &AdminHandler{
		adminSvc:    adminSvc,
		sessionSvc:  sessionSvc,
		visitorSvc:  visitorSvc,
		limiter:     limiter,
		loginBucket: loginBucket,
	}
}

// @Summary Admin login
// @Description Check admin credentials and open a session
// @Tags admin
// @Accept json
// @Produce json
// @Param loginRequest body dto.LoginRequest true "Login credentials"
// @Success 200 {object} dto.LoginResponse
// @Router /api/admin/login [post]
func (h *AdminHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.ErrValidation("Username and password are required")
	}
	if err := req.Validate(); err != nil {
		return shared.ErrValidation("Username and password are required")
	}

	resp, err := h.adminSvc.Login(c.UserContext(), req, shared.ClientIP(c), shared.UserAgent(c))
	if err != nil {
		return err
	}

	if h.limiter != nil {
		h.limiter.Reset(h.loginBucket, shared.ClientIdentifier(c))
	}
	return shared.ResponseOK(c, resp)
}

// @Summary Admin logout
// @Description Invalidate a session token
// @Tags admin
// @Accept json
// @Produce json
// @Param logoutRequest body dto.LogoutRequest true "Session token"
// @Success 200 {object} dto.MessageResponse
// @Router /api/admin/logout [post]
func (h *AdminHandler) Logout(c *fiber.Ctx) error {
	token := middleware.ExtractSessionToken(c)
	if token == "" {
		return shared.ErrValidation("Session token required")
	}

	if err := h.sessionSvc.Invalidate(c.UserContext(), token); err != nil {
		return shared.ErrInternal("Failed to logout", err)
	}

	return shared.ResponseOK(c, dto.MessageResponse{Success: true, Message: "Logged out successfully"})
}

// @Summary Logout everywhere
// @Description Invalidate every active session of the calling admin
// @Tags admin
// @Produce json
// @Security Bearer
// @Success 200 {object} dto.LogoutAllResponse
// @Router /api/admin/logout-all [post]
func (h *AdminHandler) LogoutAll(c *fiber.Ctx) error {
	principal, ok := middleware.Principal(c)
	if !ok {
		return shared.ErrUnauthorized("No session token provided")
	}

	n, err := h.sessionSvc.InvalidateAll(c.UserContext(), principal.AdminID)
	if err != nil {
		return shared.ErrInternal("Failed to logout", err)
	}

	return shared.ResponseOK(c, dto.LogoutAllResponse{Success: true, Invalidated: n})
}

// @Summary List admin sessions
// @Tags admin
// @Produce json
// @Security Bearer
// @Success 200 {object} dto.SessionListResponse
// @Router /api/admin/sessions [get]
func (h *AdminHandler) Sessions(c *fiber.Ctx) error {
	principal, ok := middleware.Principal(c)
	if !ok {
		return shared.ErrUnauthorized("No session token provided")
	}

	sessions, err := h.sessionSvc.ListActive(c.UserContext(), principal.AdminID)
	if err != nil {
		return shared.ErrInternal("Failed to fetch sessions", err)
	}

	resp := dto.SessionListResponse{Sessions: make([]dto.SessionInfo, 0, len(sessions))}
	for _, s := range sessions {
		resp.Sessions = append(resp.Sessions, dto.SessionInfo{
			ID:         s.ID,
			IPAddress:  s.IPAddress,
			UserAgent:  s.UserAgent,
			CreatedAt:  s.CreatedAt,
			LastUsedAt: s.LastUsedAt,
			ExpiresAt:  s.ExpiresAt,
			IsCurrent:  s.ID == principal.SessionID,
		})
	}
	return shared.ResponseOK(c, resp)
}

// @Summary Admin dashboard data
// @Description Every tracked visitor and the latest visits
// @Tags admin
// @Produce json
// @Security Bearer
// @Success 200 {object} dto.AdminDataResponse
// @Router /api/admin/users [get]
func (h *AdminHandler) Users(c *fiber.Ctx) error {
	resp, err := h.visitorSvc.AdminData(c.UserContext())
	if err != nil {
		return shared.ErrInternal("Failed to fetch admin data", err)
	}
	return shared.ResponseOK(c, resp)
}

// @Summary Update visitor status
// @Tags admin
// @Accept json
// @Produce json
// @Security Bearer
// @Param updateStatusRequest body dto.UpdateStatusRequest true "Visitor and new status"
// @Success 200 {object} dto.UpdateStatusResponse
// @Router /api/admin/update-status [post]
func (h *AdminHandler) UpdateStatus(c *fiber.Ctx) error {
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.ErrValidation("userId and status are required")
	}
	if req.UserID == "" || req.Status == "" {
		return shared.ErrValidation("userId and status are required")
	}
	if err := req.Validate(); err != nil {
		return shared.ErrValidation(firstValidationMessage(err))
	}

	visitor, err := h.visitorSvc.UpdateStatus(c.UserContext(), req.UserID, req.Status)
	if err != nil {
		if _, ok := shared.GetAppError(err); ok {
			return err
		}
		return shared.ErrInternal("Failed to update user status", err)
	}

	return shared.ResponseOK(c, dto.UpdateStatusResponse{Success: true, User: visitor})
}

// @Summary Create the admin user
// @Description Requires the deployment's setup key
// @Tags admin
// @Accept json
// @Produce json
// @Param setupRequest body dto.SetupRequest true "Admin credentials and setup key"
// @Success 200 {object} dto.SetupResponse
// @Router /api/admin/setup [post]
func (h *AdminHandler) Setup(c *fiber.Ctx) error {
	var req dto.SetupRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.ErrValidation("Username and password are required")
	}
	if req.Username == "" || req.Password == "" {
		return shared.ErrValidation("Username and password are required")
	}
	if err := req.Validate(); err != nil {
		return shared.ErrValidation(firstValidationMessage(err))
	}

	resp, err := h.adminSvc.Setup(c.UserContext(), req)
	if err != nil {
		if _, ok := shared.GetAppError(err); ok {
			return err
		}
		return shared.ErrInternal("Setup failed", err)
	}
	return shared.ResponseJSON(c, http.StatusOK, resp)
}

func firstValidationMessage(err error) string {
	if errs := dto.FormatValidationErrors(err); len(errs) > 0 {
		return errs[0].Message
	}
	return "Invalid request"
}
