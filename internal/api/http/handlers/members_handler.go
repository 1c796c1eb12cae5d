package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/loyalty-service/internal/api/dto"
	"github.com/spec-kit/loyalty-service/internal/auth"
	"github.com/spec-kit/loyalty-service/internal/service"
)

// MembersHandler exposes auth endpoints for loyalty members.
type MembersHandler struct {
	auth *service.AuthService
}

// NewMembersHandler constructs handler.
func NewMembersHandler(authService *service.AuthService) *MembersHandler {
	return &MembersHandler{auth: authService}
}

// Register handles POST /auth/members/register.
func (h *MembersHandler) Register(c *fiber.Ctx) error {
	var req dto.MemberRegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" || req.Password == "" || req.Name == "" {
		return fiber.NewError(http.StatusBadRequest, "name, email, password required")
	}

	member, token, exp, err := h.auth.RegisterMember(c.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{
			"member": fiber.Map{
				"id":    member.ID,
				"name":  member.Name,
				"email": member.Email,
			},
			"auth": dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}

// Login handles POST /auth/members/login.
func (h *MembersHandler) Login(c *fiber.Ctx) error {
	var req dto.MemberLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" || req.Password == "" {
		return fiber.NewError(http.StatusBadRequest, "email and password required")
	}

	member, token, exp, err := h.auth.LoginMember(c.Context(), req.Email, req.Password)
	if err != nil {
		return fiber.NewError(http.StatusUnauthorized, err.Error())
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"member": fiber.Map{
				"id":          member.ID,
				"name":        member.Name,
				"email":       member.Email,
				"visit_count": member.VisitCount,
			},
			"auth": dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}

// Me handles GET /members/me.
func (h *MembersHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Member == nil {
		return fiber.NewError(http.StatusForbidden, "member account required")
	}
	member := principal.Member
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"id":          member.ID,
			"name":        member.Name,
			"email":       member.Email,
			"status":      member.Status,
			"visit_count": member.VisitCount,
		},
	})
}
