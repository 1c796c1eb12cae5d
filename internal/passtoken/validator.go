package passtoken

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/loyalty-service/internal/domain"
)

// Verdict is the stable machine-readable outcome of a validation
// attempt. The core never emits free-text messages; the presentation
// layer maps verdicts to whatever it wants to show.
type Verdict string

const (
	VerdictOK                      Verdict = "OK"
	VerdictInvalidFormat           Verdict = "INVALID_FORMAT"
	VerdictInvalidSignature        Verdict = "INVALID_SIGNATURE"
	VerdictExpired                 Verdict = "EXPIRED"
	VerdictAlreadyUsed             Verdict = "ALREADY_USED"
	VerdictInsufficientPermissions Verdict = "INSUFFICIENT_PERMISSIONS"
	VerdictValidationError         Verdict = "VALIDATION_ERROR"

	// OutcomeReplayAttack is recorded in the audit trail for repeated
	// presentations of a consumed nonce. Callers still see
	// VerdictAlreadyUsed so the external response does not reveal
	// whether anyone considers the attempt hostile.
	OutcomeReplayAttack Verdict = "REPLAY_ATTACK"
)

// ValidatorIdentity is the staff principal presenting a token, distinct
// from the token's own subject.
type ValidatorIdentity struct {
	ID   string
	Role domain.StaffRole
}

// Result is the structured outcome returned for every validation
// attempt. Payload is populated whenever decoding succeeded, including
// on EXPIRED, so callers can show diagnostics. EventID is set only on
// success.
type Result struct {
	Verdict Verdict
	Payload *Payload
	EventID string
}

// Validator runs presented tokens through the fixed check sequence:
// format, signature, expiry, replay, authorization. It short-circuits
// on the first failure and writes the replay ledger exactly once per
// fresh nonce.
type Validator struct {
	signer *Signer
	store  ReplayStore
	policy Policy
	logger *zap.Logger
	now    func() time.Time
}

// NewValidator wires the validator. A nil policy selects DefaultPolicy.
func NewValidator(signer *Signer, store ReplayStore, policy Policy, logger *zap.Logger) *Validator {
	if policy == nil {
		policy = DefaultPolicy()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{signer: signer, store: store, policy: policy, logger: logger, now: time.Now}
}

// Validate checks a presented token on behalf of the given staff
// identity. All expected failures come back as verdicts, never errors;
// internal faults surface as VALIDATION_ERROR with detail confined to
// server-side logs.
func (v *Validator) Validate(ctx context.Context, token string, validator ValidatorIdentity) Result {
	payloadJSON, signature, err := splitToken(token)
	if err != nil {
		v.logger.Warn("pass validation rejected",
			zap.String("verdict", string(VerdictInvalidFormat)),
			zap.String("validator_id", validator.ID))
		return Result{Verdict: VerdictInvalidFormat}
	}

	// Signature is checked before anything else is looked at, so a
	// tampered payload cannot probe expiry or replay state.
	if !v.signer.Verify(payloadJSON, signature) {
		v.logger.Warn("pass validation rejected",
			zap.String("verdict", string(VerdictInvalidSignature)),
			zap.String("validator_id", validator.ID))
		return Result{Verdict: VerdictInvalidSignature}
	}

	payload, err := parsePayload(payloadJSON)
	if err != nil {
		v.logger.Warn("pass validation rejected",
			zap.String("verdict", string(VerdictInvalidFormat)),
			zap.String("validator_id", validator.ID),
			zap.Error(err))
		return Result{Verdict: VerdictInvalidFormat}
	}

	// One time read per validation so the expiry boundary cannot
	// straddle two clock samples. exp == now is still valid.
	now := v.now()
	if now.Unix() > payload.ExpiresAt {
		v.logger.Warn("pass validation rejected",
			zap.String("verdict", string(VerdictExpired)),
			zap.String("nonce", payload.Nonce),
			zap.String("purpose", string(payload.Purpose)),
			zap.String("validator_id", validator.ID))
		return Result{Verdict: VerdictExpired, Payload: payload}
	}

	// Authorization is a pure table lookup, evaluated up front so the
	// ledger row records the true final outcome. The replay verdict
	// still wins in what the caller sees: a consumed nonce reports
	// ALREADY_USED even to an unauthorized validator, which keeps the
	// permission structure out of the response.
	authorized := v.policy.Allows(validator.Role, payload.Purpose)

	outcome := VerdictOK
	if !authorized {
		outcome = VerdictInsufficientPermissions
	}

	event := &Event{
		Nonce:          payload.Nonce,
		Purpose:        payload.Purpose,
		Label:          payload.Label,
		SubjectID:      payload.SubjectID,
		ValidatorID:    validator.ID,
		ValidatorRole:  validator.Role,
		Outcome:        outcome,
		Consuming:      true,
		TokenIssuedAt:  payload.IssuedAt,
		TokenExpiresAt: payload.ExpiresAt,
	}

	created, existing, err := v.store.RecordIfNew(ctx, event)
	if err != nil {
		// Indeterminate ledger state must never pass as success or as
		// ALREADY_USED; a false rejection is safe, a false acceptance
		// would reopen replay.
		v.logger.Error("replay ledger write failed",
			zap.String("nonce", payload.Nonce),
			zap.Error(err))
		return Result{Verdict: VerdictValidationError, Payload: payload}
	}

	if !created {
		v.recordReplayAttempt(ctx, payload, validator, existing)
		return Result{Verdict: VerdictAlreadyUsed, Payload: payload}
	}

	if !authorized {
		return Result{Verdict: VerdictInsufficientPermissions, Payload: payload}
	}

	return Result{Verdict: VerdictOK, Payload: payload, EventID: event.ID}
}

// recordReplayAttempt appends a non-consuming audit row so the trail
// distinguishes "someone retried" from the ordinary ALREADY_USED
// response. Failures here are logged and swallowed: the verdict is
// already decided.
func (v *Validator) recordReplayAttempt(ctx context.Context, payload *Payload, validator ValidatorIdentity, existing *Event) {
	attempt := &Event{
		Nonce:          payload.Nonce,
		Purpose:        payload.Purpose,
		Label:          payload.Label,
		SubjectID:      payload.SubjectID,
		ValidatorID:    validator.ID,
		ValidatorRole:  validator.Role,
		Outcome:        OutcomeReplayAttack,
		Consuming:      false,
		TokenIssuedAt:  payload.IssuedAt,
		TokenExpiresAt: payload.ExpiresAt,
	}
	if err := v.store.Record(ctx, attempt); err != nil {
		v.logger.Error("replay audit write failed",
			zap.String("nonce", payload.Nonce),
			zap.Error(err))
	}
	firstValidator := ""
	if existing != nil {
		firstValidator = existing.ValidatorID
	}
	v.logger.Warn("pass replay detected",
		zap.String("nonce", payload.Nonce),
		zap.String("purpose", string(payload.Purpose)),
		zap.String("validator_id", validator.ID),
		zap.String("first_validator_id", firstValidator))
}
