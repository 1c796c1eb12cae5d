package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/loyalty-service/internal/config"
	"github.com/spec-kit/loyalty-service/internal/domain"
	"github.com/spec-kit/loyalty-service/internal/events"
	"github.com/spec-kit/loyalty-service/internal/passtoken"
	"github.com/spec-kit/loyalty-service/internal/repository"
)

type fakeMembers struct {
	byID       map[string]*domain.Member
	increments map[string]int
}

var _ repository.MemberRepository = (*fakeMembers)(nil)

func newFakeMembers(members ...*domain.Member) *fakeMembers {
	f := &fakeMembers{byID: map[string]*domain.Member{}, increments: map[string]int{}}
	for _, m := range members {
		f.byID[m.ID] = m
	}
	return f
}

func (f *fakeMembers) Create(_ context.Context, m *domain.Member) error {
	f.byID[m.ID] = m
	return nil
}

func (f *fakeMembers) Update(_ context.Context, m *domain.Member) error {
	f.byID[m.ID] = m
	return nil
}

func (f *fakeMembers) GetByID(_ context.Context, id string) (*domain.Member, error) {
	m, ok := f.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return m, nil
}

func (f *fakeMembers) GetByEmail(_ context.Context, email string) (*domain.Member, error) {
	for _, m := range f.byID {
		if m.Email == email {
			return m, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeMembers) IncrementVisitCount(_ context.Context, id string) error {
	f.increments[id]++
	return nil
}

type fakeVisits struct {
	created []*domain.Visit
}

var _ repository.VisitRepository = (*fakeVisits)(nil)

func (f *fakeVisits) Create(_ context.Context, v *domain.Visit) error {
	v.ID = "visit-1"
	v.CreatedAt = time.Now()
	f.created = append(f.created, v)
	return nil
}

func (f *fakeVisits) ListByMember(_ context.Context, _ string, _ int) ([]domain.Visit, error) {
	return nil, nil
}

type fakeCoupons struct {
	byCode   map[string]*domain.Coupon
	redeemed map[string]string
}

var _ repository.CouponRepository = (*fakeCoupons)(nil)

func newFakeCoupons(coupons ...*domain.Coupon) *fakeCoupons {
	f := &fakeCoupons{byCode: map[string]*domain.Coupon{}, redeemed: map[string]string{}}
	for _, c := range coupons {
		f.byCode[c.Code] = c
	}
	return f
}

func (f *fakeCoupons) Create(_ context.Context, c *domain.Coupon) error {
	c.ID = "coupon-1"
	f.byCode[c.Code] = c
	return nil
}

func (f *fakeCoupons) GetByCode(_ context.Context, code string) (*domain.Coupon, error) {
	c, ok := f.byCode[code]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return c, nil
}

func (f *fakeCoupons) MarkRedeemed(_ context.Context, code, staffID string) error {
	c, ok := f.byCode[code]
	if !ok || c.Status != domain.CouponStatusIssued {
		return repository.ErrCouponRedeemed
	}
	c.Status = domain.CouponStatusRedeemed
	f.redeemed[code] = staffID
	return nil
}

type fakeEventRepo struct {
	mu       sync.Mutex
	consumed map[string]*passtoken.Event
	audits   []*passtoken.Event
}

var _ repository.ValidationEventRepository = (*fakeEventRepo)(nil)

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{consumed: map[string]*passtoken.Event{}}
}

func (f *fakeEventRepo) RecordIfNew(_ context.Context, e *passtoken.Event) (bool, *passtoken.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.consumed[e.Nonce]; ok {
		cpy := *existing
		return false, &cpy, nil
	}
	e.ID = "evt-" + e.Nonce
	cpy := *e
	f.consumed[e.Nonce] = &cpy
	return true, nil, nil
}

func (f *fakeEventRepo) Record(_ context.Context, e *passtoken.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cpy := *e
	f.audits = append(f.audits, &cpy)
	return nil
}

func (f *fakeEventRepo) ListRecent(_ context.Context, _ int) ([]passtoken.Event, error) {
	return nil, nil
}

func (f *fakeEventRepo) AggregateStats(_ context.Context, _ time.Time) ([]repository.OutcomeStat, error) {
	return nil, nil
}

type captureDispatcher struct {
	published []events.Event
}

var _ events.Dispatcher = (*captureDispatcher)(nil)

func (d *captureDispatcher) Publish(_ context.Context, e events.Event) error {
	d.published = append(d.published, e)
	return nil
}

func (d *captureDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func testConfig() config.Config {
	return config.Config{
		Pass: config.PassConfig{
			Secret:            "test-pass-secret",
			DefaultTTLMinutes: 60,
			PromoTTLMinutes:   1440,
		},
	}
}

func agent() *domain.StaffMember {
	return &domain.StaffMember{ID: "staff-1", Role: domain.StaffRoleAgent, Active: true}
}

func TestVisitPassFlow(t *testing.T) {
	member := &domain.Member{ID: "member-1", Name: "Dana", Status: domain.MemberStatusActive}
	members := newFakeMembers(member)
	visits := &fakeVisits{}
	dispatcher := &captureDispatcher{}

	svc := NewPassService(testConfig(), PassDependencies{
		ReplayStore: newFakeEventRepo(),
		MemberRepo:  members,
		VisitRepo:   visits,
		CouponRepo:  newFakeCoupons(),
		Dispatcher:  dispatcher,
	})

	ctx := context.Background()
	token, payload, err := svc.IssueVisitPass(ctx, member)
	require.NoError(t, err)
	require.Equal(t, passtoken.PurposeVisit, payload.Purpose)
	require.Equal(t, member.ID, payload.SubjectID)

	result := svc.ValidatePass(ctx, token, agent())
	require.Equal(t, passtoken.VerdictOK, result.Verdict)
	require.Len(t, visits.created, 1)
	require.Equal(t, member.ID, visits.created[0].MemberID)
	require.Equal(t, domain.VisitSourceScan, visits.created[0].Source)
	require.Equal(t, 1, members.increments[member.ID])
	require.Len(t, dispatcher.published, 1)
	require.Equal(t, events.EventVisitConfirmed, dispatcher.published[0].Type)

	// Second presentation is refused and performs no business action.
	result = svc.ValidatePass(ctx, token, agent())
	require.Equal(t, passtoken.VerdictAlreadyUsed, result.Verdict)
	require.Len(t, visits.created, 1)
	require.Len(t, dispatcher.published, 1)
}

func TestPromoPassFlow(t *testing.T) {
	member := &domain.Member{ID: "member-1", Name: "Dana", Status: domain.MemberStatusActive}
	coupon := &domain.Coupon{Code: "code-123", MemberID: member.ID, Reward: "free coffee", Status: domain.CouponStatusIssued}
	coupons := newFakeCoupons(coupon)
	dispatcher := &captureDispatcher{}

	svc := NewPassService(testConfig(), PassDependencies{
		ReplayStore: newFakeEventRepo(),
		MemberRepo:  newFakeMembers(member),
		VisitRepo:   &fakeVisits{},
		CouponRepo:  coupons,
		Dispatcher:  dispatcher,
	})

	ctx := context.Background()
	token, payload, err := svc.IssuePromoPass(ctx, coupon.Code)
	require.NoError(t, err)
	require.Equal(t, coupon.Code, payload.Label)
	require.Equal(t, int64(24*3600), payload.ExpiresAt-payload.IssuedAt)

	result := svc.ValidatePass(ctx, token, agent())
	require.Equal(t, passtoken.VerdictOK, result.Verdict)
	require.Equal(t, domain.CouponStatusRedeemed, coupon.Status)
	require.Equal(t, "staff-1", coupons.redeemed[coupon.Code])
	require.Len(t, dispatcher.published, 1)
	require.Equal(t, events.EventPromoRedeemed, dispatcher.published[0].Type)

	// A redeemed coupon cannot back a fresh promo pass.
	_, _, err = svc.IssuePromoPass(ctx, coupon.Code)
	require.Error(t, err)
}

func TestReferralPassFlow(t *testing.T) {
	member := &domain.Member{ID: "member-1", Name: "Dana", Status: domain.MemberStatusActive}
	members := newFakeMembers(member)
	visits := &fakeVisits{}

	svc := NewPassService(testConfig(), PassDependencies{
		ReplayStore: newFakeEventRepo(),
		MemberRepo:  members,
		VisitRepo:   visits,
		CouponRepo:  newFakeCoupons(),
		Dispatcher:  &captureDispatcher{},
	})

	ctx := context.Background()
	token, _, err := svc.IssueReferralPass(ctx, member)
	require.NoError(t, err)

	result := svc.ValidatePass(ctx, token, agent())
	require.Equal(t, passtoken.VerdictOK, result.Verdict)
	require.Len(t, visits.created, 1)
	require.Equal(t, domain.VisitSourceReferral, visits.created[0].Source)
}

func TestStaffCheckRequiresAdmin(t *testing.T) {
	svc := NewPassService(testConfig(), PassDependencies{
		ReplayStore: newFakeEventRepo(),
		MemberRepo:  newFakeMembers(),
		VisitRepo:   &fakeVisits{},
		CouponRepo:  newFakeCoupons(),
		Dispatcher:  &captureDispatcher{},
	})

	ctx := context.Background()
	token, _, err := svc.IssueStaffCheckPass(ctx, "staff-9", "Shift check")
	require.NoError(t, err)

	result := svc.ValidatePass(ctx, token, agent())
	require.Equal(t, passtoken.VerdictInsufficientPermissions, result.Verdict)

	admin := &domain.StaffMember{ID: "admin-1", Role: domain.StaffRoleAdmin, Active: true}
	result = svc.ValidatePass(ctx, token, admin)
	require.Equal(t, passtoken.VerdictAlreadyUsed, result.Verdict)
}
