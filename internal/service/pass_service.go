package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/loyalty-service/internal/config"
	"github.com/spec-kit/loyalty-service/internal/domain"
	"github.com/spec-kit/loyalty-service/internal/events"
	"github.com/spec-kit/loyalty-service/internal/observability"
	"github.com/spec-kit/loyalty-service/internal/passtoken"
	"github.com/spec-kit/loyalty-service/internal/repository"
	apperrors "github.com/spec-kit/loyalty-service/pkg/util"
)

// PassService mints pass tokens and runs presented ones through the
// validator, dispatching the per-purpose business action on success.
type PassService struct {
	issuer     *passtoken.Issuer
	validator  *passtoken.Validator
	members    repository.MemberRepository
	visits     repository.VisitRepository
	coupons    repository.CouponRepository
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	promoTTL   time.Duration
}

// PassDependencies encapsulates collaborator requirements.
type PassDependencies struct {
	ReplayStore repository.ValidationEventRepository
	MemberRepo  repository.MemberRepository
	VisitRepo   repository.VisitRepository
	CouponRepo  repository.CouponRepository
	Dispatcher  events.Dispatcher
	Metrics     *observability.Metrics
	Logger      *zap.Logger
}

// NewPassService wires the pass core into the application.
func NewPassService(cfg config.Config, deps PassDependencies) *PassService {
	signer := passtoken.NewSigner([]byte(cfg.Pass.Secret))
	return &PassService{
		issuer:     passtoken.NewIssuer(signer, cfg.Pass.DefaultTTL()),
		validator:  passtoken.NewValidator(signer, deps.ReplayStore, passtoken.DefaultPolicy(), deps.Logger),
		members:    deps.MemberRepo,
		visits:     deps.VisitRepo,
		coupons:    deps.CouponRepo,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		promoTTL:   cfg.Pass.PromoTTL(),
	}
}

// IssueVisitPass mints a visit pass for the member's own account.
func (s *PassService) IssueVisitPass(ctx context.Context, member *domain.Member) (string, *passtoken.Payload, error) {
	label := fmt.Sprintf("Visit pass for %s", member.Name)
	return s.issuer.Issue(passtoken.PurposeVisit, member.ID, label, 0)
}

// IssueReferralPass mints a referral pass naming the member as referrer.
func (s *PassService) IssueReferralPass(ctx context.Context, member *domain.Member) (string, *passtoken.Payload, error) {
	label := fmt.Sprintf("Referred by %s", member.Name)
	return s.issuer.Issue(passtoken.PurposeReferral, member.ID, label, 0)
}

// IssuePromoPass mints a promo pass bound to an issued coupon. The
// coupon code travels in the pass label so redemption can find it.
func (s *PassService) IssuePromoPass(ctx context.Context, couponCode string) (string, *passtoken.Payload, error) {
	coupon, err := s.coupons.GetByCode(ctx, couponCode)
	if err != nil {
		return "", nil, apperrors.NewNotFound("coupon", map[string]any{"code": couponCode})
	}
	if coupon.Status != domain.CouponStatusIssued {
		return "", nil, apperrors.NewConflict("coupon already redeemed", nil)
	}
	return s.issuer.Issue(passtoken.PurposePromo, coupon.MemberID, coupon.Code, s.promoTTL)
}

// IssueStaffCheckPass mints an admin-validated staff check pass.
func (s *PassService) IssueStaffCheckPass(ctx context.Context, staffID, label string) (string, *passtoken.Payload, error) {
	return s.issuer.Issue(passtoken.PurposeStaffCheck, staffID, label, 0)
}

// CreateCoupon grants a reward coupon to a member.
func (s *PassService) CreateCoupon(ctx context.Context, memberID, reward string) (*domain.Coupon, error) {
	if _, err := s.members.GetByID(ctx, memberID); err != nil {
		return nil, apperrors.NewNotFound("member", map[string]any{"id": memberID})
	}
	coupon := &domain.Coupon{
		Code:     uuid.NewString(),
		MemberID: memberID,
		Reward:   reward,
		Status:   domain.CouponStatusIssued,
	}
	if err := s.coupons.Create(ctx, coupon); err != nil {
		return nil, err
	}
	return coupon, nil
}

// ValidatePass checks a presented token for the staff principal and,
// on success, performs the business action tied to the pass purpose.
// Every expected failure comes back inside the result, never as error.
func (s *PassService) ValidatePass(ctx context.Context, token string, staff *domain.StaffMember) passtoken.Result {
	result := s.validator.Validate(ctx, token, passtoken.ValidatorIdentity{
		ID:   staff.ID,
		Role: staff.Role,
	})

	purpose := ""
	if result.Payload != nil {
		purpose = string(result.Payload.Purpose)
	}
	s.metrics.RecordVerdict(purpose, string(result.Verdict))

	if result.Verdict != passtoken.VerdictOK {
		return result
	}

	// The nonce is consumed at this point. Side-effect failures are
	// logged and do not flip the verdict: the audit trail already holds
	// the successful validation and the action can be replayed from it.
	if err := s.applyBusinessAction(ctx, result, staff); err != nil {
		s.logger.Error("pass business action failed",
			zap.String("purpose", purpose),
			zap.String("nonce", result.Payload.Nonce),
			zap.Error(err))
	}

	s.publish(ctx, result, staff)
	return result
}

func (s *PassService) applyBusinessAction(ctx context.Context, result passtoken.Result, staff *domain.StaffMember) error {
	payload := result.Payload
	switch payload.Purpose {
	case passtoken.PurposeVisit:
		return s.confirmVisit(ctx, payload, staff, domain.VisitSourceScan)
	case passtoken.PurposeReferral:
		return s.confirmVisit(ctx, payload, staff, domain.VisitSourceReferral)
	case passtoken.PurposePromo:
		err := s.coupons.MarkRedeemed(ctx, payload.Label, staff.ID)
		if errors.Is(err, repository.ErrCouponRedeemed) {
			// Pass was single-use but the coupon can have been redeemed
			// through another channel in the meantime.
			s.logger.Warn("promo pass validated for redeemed coupon",
				zap.String("code", payload.Label))
			return nil
		}
		return err
	case passtoken.PurposeStaffCheck:
		return nil
	default:
		return fmt.Errorf("unhandled purpose %q", payload.Purpose)
	}
}

func (s *PassService) confirmVisit(ctx context.Context, payload *passtoken.Payload, staff *domain.StaffMember, source domain.VisitSource) error {
	visit := &domain.Visit{
		MemberID:    payload.SubjectID,
		ConfirmedBy: staff.ID,
		Source:      source,
		Note:        payload.Label,
	}
	if err := s.visits.Create(ctx, visit); err != nil {
		return err
	}
	return s.members.IncrementVisitCount(ctx, payload.SubjectID)
}

func (s *PassService) publish(ctx context.Context, result passtoken.Result, staff *domain.StaffMember) {
	if s.dispatcher == nil {
		return
	}
	payload := result.Payload
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.TypeForPurpose(payload.Purpose),
		MemberID:  payload.SubjectID,
		Timestamp: time.Now(),
		Payload: events.PassValidatedPayload{
			Purpose:     payload.Purpose,
			Label:       payload.Label,
			Nonce:       payload.Nonce,
			ValidatorID: staff.ID,
			Role:        staff.Role,
			EventID:     result.EventID,
		},
	})
}
