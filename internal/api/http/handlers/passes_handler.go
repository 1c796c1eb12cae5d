package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/loyalty-service/internal/api/dto"
	"github.com/spec-kit/loyalty-service/internal/auth"
	"github.com/spec-kit/loyalty-service/internal/passtoken"
	"github.com/spec-kit/loyalty-service/internal/service"
)

// PassesHandler exposes pass issuance and validation endpoints.
type PassesHandler struct {
	passes *service.PassService
}

// NewPassesHandler constructs handler.
func NewPassesHandler(passService *service.PassService) *PassesHandler {
	return &PassesHandler{passes: passService}
}

// IssueVisit handles POST /passes/visit for the logged-in member.
func (h *PassesHandler) IssueVisit(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Member == nil {
		return fiber.NewError(http.StatusForbidden, "member account required")
	}

	token, payload, err := h.passes.IssueVisitPass(c.Context(), principal.Member)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": passResponse(token, payload)})
}

// IssueReferral handles POST /passes/referral for the logged-in member.
func (h *PassesHandler) IssueReferral(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Member == nil {
		return fiber.NewError(http.StatusForbidden, "member account required")
	}

	token, payload, err := h.passes.IssueReferralPass(c.Context(), principal.Member)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": passResponse(token, payload)})
}

// IssuePromo handles POST /passes/promo (staff).
func (h *PassesHandler) IssuePromo(c *fiber.Ctx) error {
	var req dto.PromoPassRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.CouponCode == "" {
		return fiber.NewError(http.StatusBadRequest, "coupon_code required")
	}

	token, payload, err := h.passes.IssuePromoPass(c.Context(), req.CouponCode)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": passResponse(token, payload)})
}

// IssueStaffCheck handles POST /passes/staff-check (admin).
func (h *PassesHandler) IssueStaffCheck(c *fiber.Ctx) error {
	var req dto.StaffCheckPassRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.StaffID == "" {
		return fiber.NewError(http.StatusBadRequest, "staff_id required")
	}

	token, payload, err := h.passes.IssueStaffCheckPass(c.Context(), req.StaffID, req.Label)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": passResponse(token, payload)})
}

// CreateCoupon handles POST /coupons (staff).
func (h *PassesHandler) CreateCoupon(c *fiber.Ctx) error {
	var req dto.CouponCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.MemberID == "" || req.Reward == "" {
		return fiber.NewError(http.StatusBadRequest, "member_id and reward required")
	}

	coupon, err := h.passes.CreateCoupon(c.Context(), req.MemberID, req.Reward)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{
			"code":      coupon.Code,
			"member_id": coupon.MemberID,
			"reward":    coupon.Reward,
			"status":    coupon.Status,
		},
	})
}

// Validate handles POST /passes/validate (staff). Verdicts are always
// returned with HTTP 200; only transport-level problems use error
// statuses. Callers branch on the verdict string.
func (h *PassesHandler) Validate(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Staff == nil {
		return fiber.NewError(http.StatusForbidden, "staff role required")
	}

	var req dto.ValidatePassRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Token == "" {
		return fiber.NewError(http.StatusBadRequest, "token required")
	}

	result := h.passes.ValidatePass(c.Context(), req.Token, principal.Staff)

	resp := dto.ValidationResponse{
		Verdict: string(result.Verdict),
		EventID: result.EventID,
	}
	if result.Payload != nil {
		resp.Pass = &dto.PassDetails{
			Purpose:   string(result.Payload.Purpose),
			Label:     result.Payload.Label,
			MemberID:  result.Payload.SubjectID,
			IssuedAt:  result.Payload.IssuedAt,
			ExpiresAt: result.Payload.ExpiresAt,
		}
	}
	return c.JSON(fiber.Map{"data": resp})
}

func passResponse(token string, payload *passtoken.Payload) dto.PassResponse {
	return dto.PassResponse{
		Token:     token,
		Purpose:   string(payload.Purpose),
		Label:     payload.Label,
		ExpiresAt: payload.ExpiresAt,
	}
}
