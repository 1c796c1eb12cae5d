package passtoken

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/loyalty-service/internal/domain"
)

type fakeReplayStore struct {
	mu       sync.Mutex
	consumed map[string]*Event
	attempts []*Event

	recordIfNewErr error
	recordErr      error
}

var _ ReplayStore = (*fakeReplayStore)(nil)

func newFakeReplayStore() *fakeReplayStore {
	return &fakeReplayStore{consumed: make(map[string]*Event)}
}

func (f *fakeReplayStore) RecordIfNew(_ context.Context, event *Event) (bool, *Event, error) {
	if f.recordIfNewErr != nil {
		return false, nil, f.recordIfNewErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.consumed[event.Nonce]; ok {
		cpy := *existing
		return false, &cpy, nil
	}
	event.ID = "evt-" + event.Nonce
	event.CreatedAt = time.Now()
	cpy := *event
	f.consumed[event.Nonce] = &cpy
	return true, nil, nil
}

func (f *fakeReplayStore) Record(_ context.Context, event *Event) error {
	if f.recordErr != nil {
		return f.recordErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	cpy := *event
	f.attempts = append(f.attempts, &cpy)
	return nil
}

func newTestValidator(store ReplayStore) (*Issuer, *Validator) {
	signer := NewSigner([]byte("test-secret"))
	return NewIssuer(signer, time.Hour), NewValidator(signer, store, nil, nil)
}

func staffIdentity() ValidatorIdentity {
	return ValidatorIdentity{ID: "staff-1", Role: domain.StaffRoleAgent}
}

func TestValidateHappyPathThenAlreadyUsed(t *testing.T) {
	store := newFakeReplayStore()
	issuer, validator := newTestValidator(store)
	ctx := context.Background()

	token, _, err := issuer.Issue(PurposeVisit, "U1", "Visit pass", time.Hour)
	require.NoError(t, err)

	res := validator.Validate(ctx, token, staffIdentity())
	require.Equal(t, VerdictOK, res.Verdict)
	require.NotNil(t, res.Payload)
	require.Equal(t, "U1", res.Payload.SubjectID)
	require.NotEmpty(t, res.EventID)

	res = validator.Validate(ctx, token, staffIdentity())
	require.Equal(t, VerdictAlreadyUsed, res.Verdict)
	require.Len(t, store.attempts, 1)
	require.Equal(t, OutcomeReplayAttack, store.attempts[0].Outcome)
	require.False(t, store.attempts[0].Consuming)
}

func TestValidateGarbageInput(t *testing.T) {
	_, validator := newTestValidator(newFakeReplayStore())

	res := validator.Validate(context.Background(), "not-a-token", staffIdentity())
	require.Equal(t, VerdictInvalidFormat, res.Verdict)
	require.Nil(t, res.Payload)
}

func TestValidateForgedPayload(t *testing.T) {
	store := newFakeReplayStore()
	issuer, validator := newTestValidator(store)

	token, _, err := issuer.Issue(PurposeVisit, "U1", "", 0)
	require.NoError(t, err)

	// Re-encode the payload with a different subject without re-signing.
	parts := strings.SplitN(token, ".", 2)
	payloadJSON, err := base64.RawURLEncoding.DecodeString(parts[0])
	require.NoError(t, err)
	var p Payload
	require.NoError(t, json.Unmarshal(payloadJSON, &p))
	p.SubjectID = "U2"
	forgedJSON, err := json.Marshal(&p)
	require.NoError(t, err)
	forged := base64.RawURLEncoding.EncodeToString(forgedJSON) + "." + parts[1]

	res := validator.Validate(context.Background(), forged, staffIdentity())
	require.Equal(t, VerdictInvalidSignature, res.Verdict)
	require.Empty(t, store.consumed, "forged token must not touch the ledger")
}

func TestValidateExpiryBoundary(t *testing.T) {
	store := newFakeReplayStore()
	signer := NewSigner([]byte("test-secret"))
	issuer := NewIssuer(signer, time.Hour)

	issued := time.Unix(1_700_000_000, 0)
	issuer.now = func() time.Time { return issued }

	token, payload, err := issuer.Issue(PurposePromo, "U1", "", time.Minute)
	require.NoError(t, err)

	// Still valid at exactly exp.
	validator := NewValidator(signer, store, nil, nil)
	validator.now = func() time.Time { return time.Unix(payload.ExpiresAt, 0) }
	res := validator.Validate(context.Background(), token, ValidatorIdentity{ID: "staff-1", Role: domain.StaffRoleAdmin})
	require.Equal(t, VerdictOK, res.Verdict)

	// One second past exp a fresh token is rejected, payload returned.
	token2, payload2, err := issuer.Issue(PurposePromo, "U1", "", time.Minute)
	require.NoError(t, err)
	validator.now = func() time.Time { return time.Unix(payload2.ExpiresAt+1, 0) }
	res = validator.Validate(context.Background(), token2, staffIdentity())
	require.Equal(t, VerdictExpired, res.Verdict)
	require.NotNil(t, res.Payload)
	require.Equal(t, payload2.Nonce, res.Payload.Nonce)
	require.Len(t, store.consumed, 1, "expired token must not consume a nonce")
}

func TestValidateAuthorizationMatrix(t *testing.T) {
	cases := []struct {
		role    domain.StaffRole
		purpose Purpose
		want    Verdict
	}{
		{domain.StaffRoleAdmin, PurposeVisit, VerdictOK},
		{domain.StaffRoleAdmin, PurposePromo, VerdictOK},
		{domain.StaffRoleAdmin, PurposeReferral, VerdictOK},
		{domain.StaffRoleAdmin, PurposeStaffCheck, VerdictOK},
		{domain.StaffRoleAgent, PurposeVisit, VerdictOK},
		{domain.StaffRoleAgent, PurposePromo, VerdictOK},
		{domain.StaffRoleAgent, PurposeReferral, VerdictOK},
		{domain.StaffRoleAgent, PurposeStaffCheck, VerdictInsufficientPermissions},
		{domain.StaffRole("GUEST"), PurposeVisit, VerdictInsufficientPermissions},
		{domain.StaffRole("GUEST"), PurposeStaffCheck, VerdictInsufficientPermissions},
	}

	for _, tc := range cases {
		t.Run(string(tc.role)+"/"+string(tc.purpose), func(t *testing.T) {
			issuer, validator := newTestValidator(newFakeReplayStore())
			token, _, err := issuer.Issue(tc.purpose, "U1", "", 0)
			require.NoError(t, err)

			res := validator.Validate(context.Background(), token, ValidatorIdentity{ID: "v", Role: tc.role})
			require.Equal(t, tc.want, res.Verdict)
		})
	}
}

func TestValidateReplayBeforeAuthorization(t *testing.T) {
	store := newFakeReplayStore()
	issuer, validator := newTestValidator(store)
	ctx := context.Background()

	token, _, err := issuer.Issue(PurposeStaffCheck, "U1", "", 0)
	require.NoError(t, err)

	admin := ValidatorIdentity{ID: "admin-1", Role: domain.StaffRoleAdmin}
	require.Equal(t, VerdictOK, validator.Validate(ctx, token, admin).Verdict)

	// A later unauthorized presentation reports ALREADY_USED, not
	// INSUFFICIENT_PERMISSIONS.
	res := validator.Validate(ctx, token, staffIdentity())
	require.Equal(t, VerdictAlreadyUsed, res.Verdict)
}

func TestValidateUnauthorizedFirstPresentationConsumesNonce(t *testing.T) {
	store := newFakeReplayStore()
	issuer, validator := newTestValidator(store)
	ctx := context.Background()

	token, payload, err := issuer.Issue(PurposeStaffCheck, "U1", "", 0)
	require.NoError(t, err)

	res := validator.Validate(ctx, token, staffIdentity())
	require.Equal(t, VerdictInsufficientPermissions, res.Verdict)

	recorded := store.consumed[payload.Nonce]
	require.NotNil(t, recorded)
	require.Equal(t, VerdictInsufficientPermissions, recorded.Outcome)

	res = validator.Validate(ctx, token, ValidatorIdentity{ID: "admin-1", Role: domain.StaffRoleAdmin})
	require.Equal(t, VerdictAlreadyUsed, res.Verdict)
}

func TestValidateConcurrentSingleUse(t *testing.T) {
	store := newFakeReplayStore()
	issuer, validator := newTestValidator(store)

	token, _, err := issuer.Issue(PurposeVisit, "U1", "", 0)
	require.NoError(t, err)

	const attempts = 32
	verdicts := make(chan Verdict, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			verdicts <- validator.Validate(context.Background(), token, staffIdentity()).Verdict
		}()
	}
	wg.Wait()
	close(verdicts)

	successes, used := 0, 0
	for v := range verdicts {
		switch v {
		case VerdictOK:
			successes++
		case VerdictAlreadyUsed:
			used++
		default:
			t.Fatalf("unexpected verdict %s", v)
		}
	}
	require.Equal(t, 1, successes)
	require.Equal(t, attempts-1, used)
}

func TestValidateRejectionsAreLogged(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	signer := NewSigner([]byte("test-secret"))
	store := newFakeReplayStore()
	validator := NewValidator(signer, store, nil, zap.New(core))

	issuer := NewIssuer(signer, time.Hour)
	issuer.now = func() time.Time { return time.Unix(1_700_000_000, 0) }
	token, payload, err := issuer.Issue(PurposeVisit, "U1", "", time.Minute)
	require.NoError(t, err)
	validator.now = func() time.Time { return time.Unix(payload.ExpiresAt+1, 0) }
	require.Equal(t, VerdictExpired, validator.Validate(context.Background(), token, staffIdentity()).Verdict)

	// Properly signed payload missing its nonce.
	badJSON := []byte(`{"sub":"","type":"visit","userId":"U1","nonce":"","iat":10,"exp":20}`)
	badToken := assembleToken(badJSON, signer.Sign(badJSON))
	require.Equal(t, VerdictInvalidFormat, validator.Validate(context.Background(), badToken, staffIdentity()).Verdict)

	var verdicts []string
	for _, entry := range logs.All() {
		require.Equal(t, "pass validation rejected", entry.Message)
		verdicts = append(verdicts, entry.ContextMap()["verdict"].(string))
	}
	require.Equal(t, []string{string(VerdictExpired), string(VerdictInvalidFormat)}, verdicts)
}

func TestValidateStoreFailure(t *testing.T) {
	store := newFakeReplayStore()
	store.recordIfNewErr = errors.New("connection refused")
	issuer, validator := newTestValidator(store)

	token, _, err := issuer.Issue(PurposeVisit, "U1", "", 0)
	require.NoError(t, err)

	res := validator.Validate(context.Background(), token, staffIdentity())
	require.Equal(t, VerdictValidationError, res.Verdict)
}
