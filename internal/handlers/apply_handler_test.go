package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/launchpath/backend/internal/middleware"
	"github.com/launchpath/backend/internal/models"
	"github.com/launchpath/backend/internal/notify"
	"github.com/launchpath/backend/internal/repository"
	"github.com/launchpath/backend/internal/services"
)

// ---------------------------------------------------------------------------
// Mocks
// ---------------------------------------------------------------------------

// --- QuotaPolicy mock ---

type mockQuota struct {
	status   services.QuotaStatus
	statuses []services.QuotaStatus // overrides status, one per CheckQuota call
	checkErr error

	consumeErrs  []error // consumed one per ConsumeAction call; nil past the end
	consumeCalls int
	checkCalls   int
}

func (m *mockQuota) CheckQuota(_ context.Context, _ *models.Account, _ time.Time) (services.QuotaStatus, error) {
	m.checkCalls++
	if m.checkCalls <= len(m.statuses) {
		return m.statuses[m.checkCalls-1], m.checkErr
	}
	return m.status, m.checkErr
}

func (m *mockQuota) ConsumeAction(_ context.Context, _ uuid.UUID, _ int) error {
	m.consumeCalls++
	if m.consumeCalls <= len(m.consumeErrs) {
		return m.consumeErrs[m.consumeCalls-1]
	}
	return nil
}

// --- OpportunityGetter mock ---

type mockOpps struct {
	opps map[uuid.UUID]*models.Opportunity
}

func (m *mockOpps) GetByID(_ context.Context, id uuid.UUID) (*models.Opportunity, error) {
	opp, ok := m.opps[id]
	if !ok {
		return nil, services.ErrNotFound
	}
	return opp, nil
}

// --- ApplicationStore mock ---

type mockApplications struct {
	exists    bool
	createErr error
	created   []*models.Application
}

func (m *mockApplications) Create(_ context.Context, a *models.Application) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, a)
	return nil
}

func (m *mockApplications) Exists(_ context.Context, _, _ uuid.UUID) (bool, error) {
	return m.exists, nil
}

// --- UnlockGetter mock ---

type mockUnlockGetter struct {
	record *models.UnlockRecord
}

func (m *mockUnlockGetter) Get(_ context.Context, _, _ uuid.UUID) (*models.UnlockRecord, error) {
	return m.record, nil
}

// --- notify capture ---

type capturedEvent struct {
	Type      string
	AccountID uuid.UUID
}

func captureNotifier(events *[]capturedEvent) *notify.Notifier {
	return notify.NewNotifier(func(_ context.Context, args notify.EventArgs) error {
		*events = append(*events, capturedEvent{Type: args.Type, AccountID: args.AccountID})
		return nil
	}, slog.Default())
}

// injectAccount sets the authenticated account into the request context.
func injectAccount(r *http.Request, acc *models.Account) *http.Request {
	return r.WithContext(middleware.WithAccount(r.Context(), acc))
}

type applyFixture struct {
	handler *ApplyHandler
	quota   *mockQuota
	apps    *mockApplications
	unlocks *mockUnlockGetter
	acc     *models.Account
	opp     *models.Opportunity
	events  []capturedEvent
}

func newApplyFixture(status services.QuotaStatus) *applyFixture {
	f := &applyFixture{
		quota:   &mockQuota{status: status},
		apps:    &mockApplications{},
		unlocks: &mockUnlockGetter{},
		acc:     &models.Account{ID: uuid.New(), SubscriptionTier: models.TierFree},
		opp:     &models.Opportunity{ID: uuid.New(), Title: "Internship"},
	}
	f.handler = &ApplyHandler{
		Quota:         f.quota,
		Opportunities: &mockOpps{opps: map[uuid.UUID]*models.Opportunity{f.opp.ID: f.opp}},
		Applications:  f.apps,
		Unlocks:       f.unlocks,
		Notifier:      captureNotifier(&f.events),
		Logger:        slog.Default(),
	}
	return f
}

func (f *applyFixture) do(opportunityID uuid.UUID) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/opportunities/"+opportunityID.String()+"/apply", nil)
	req.SetPathValue("id", opportunityID.String())
	req = injectAccount(req, f.acc)
	rec := httptest.NewRecorder()
	f.handler.Apply(rec, req)
	return rec
}

func allowedStatus(used, max int) services.QuotaStatus {
	return services.QuotaStatus{
		Allowed:     true,
		Used:        used,
		Max:         max,
		Remaining:   max - used,
		NextResetAt: time.Now().Add(24 * time.Hour),
	}
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestApply_Success(t *testing.T) {
	f := newApplyFixture(allowedStatus(1, 4))

	rec := f.do(f.opp.ID)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp applyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Used != 2 || resp.Remaining != 2 {
		t.Errorf("response = %+v", resp)
	}
	if len(f.apps.created) != 1 {
		t.Fatalf("applications created = %d, want 1", len(f.apps.created))
	}
	if f.quota.consumeCalls != 1 {
		t.Errorf("consume calls = %d, want 1", f.quota.consumeCalls)
	}
}

func TestApply_UnlimitedTier(t *testing.T) {
	f := newApplyFixture(services.QuotaStatus{
		Allowed:   true,
		Used:      120,
		Max:       models.UnlimitedQuota,
		Remaining: models.UnlimitedQuota,
	})

	rec := f.do(f.opp.ID)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp applyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Remaining != models.UnlimitedQuota {
		t.Errorf("remaining = %d, want unlimited sentinel", resp.Remaining)
	}
}

func TestApply_QuotaExhausted(t *testing.T) {
	f := newApplyFixture(services.QuotaStatus{
		Allowed: false, Used: 4, Max: 4, NextResetAt: time.Now().Add(time.Hour),
	})

	rec := f.do(f.opp.ID)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d: %s", rec.Code, rec.Body.String())
	}
	if f.quota.consumeCalls != 0 {
		t.Errorf("quota consumed on a denied request: %d calls", f.quota.consumeCalls)
	}
	if len(f.apps.created) != 0 {
		t.Error("application created despite exhausted quota")
	}
	if len(f.events) != 1 || f.events[0].Type != notify.EventQuotaExhausted {
		t.Errorf("events = %+v, want one quota_exhausted", f.events)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["suggestion"] == "" {
		t.Error("429 body should carry an upgrade suggestion")
	}
}

func TestApply_OpportunityNotFound(t *testing.T) {
	f := newApplyFixture(allowedStatus(0, 4))

	rec := f.do(uuid.New())

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if f.quota.consumeCalls != 0 {
		t.Error("quota consumed for a nonexistent opportunity")
	}
}

func TestApply_LockedOpportunity(t *testing.T) {
	f := newApplyFixture(allowedStatus(0, 4))
	until := time.Now().Add(72 * time.Hour)
	f.opp.IsRestricted = true
	f.opp.RestrictedUntil = &until

	rec := f.do(f.opp.ID)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
	}
	if f.quota.consumeCalls != 0 {
		t.Error("quota consumed for a locked opportunity")
	}
}

func TestApply_UnlockedRestrictedOpportunity(t *testing.T) {
	f := newApplyFixture(allowedStatus(0, 4))
	until := time.Now().Add(72 * time.Hour)
	f.opp.IsRestricted = true
	f.opp.RestrictedUntil = &until
	f.unlocks.record = &models.UnlockRecord{
		AccountID:     f.acc.ID,
		OpportunityID: f.opp.ID,
		Method:        models.UnlockMethodCredits,
	}

	rec := f.do(f.opp.ID)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestApply_RetriesOnceOnConcurrentConsume(t *testing.T) {
	f := newApplyFixture(allowedStatus(1, 4))
	f.quota.consumeErrs = []error{services.ErrConcurrentModification}

	rec := f.do(f.opp.ID)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if f.quota.consumeCalls != 2 {
		t.Errorf("consume calls = %d, want 2 (one retry)", f.quota.consumeCalls)
	}
}

// quotaStore backs the real TierPolicy with in-memory counters so the full
// check/consume/retry path runs against storage semantics instead of
// scripted statuses.
type quotaStore struct {
	account *models.Account

	// stealFirstConsume makes the first IncrementActions lose its CAS to a
	// concurrent consumer that takes the unit.
	stealFirstConsume bool
	incrementCalls    int
}

func (s *quotaStore) GetByID(_ context.Context, _ uuid.UUID) (*models.Account, error) {
	cp := *s.account
	return &cp, nil
}

func (s *quotaStore) ResetQuota(_ context.Context, _ uuid.UUID, _, now time.Time) (bool, error) {
	s.account.ActionsThisPeriod = 0
	s.account.PeriodAnchor = now
	return true, nil
}

func (s *quotaStore) IncrementActions(_ context.Context, _ uuid.UUID, expectedUsed int) (bool, error) {
	s.incrementCalls++
	if s.stealFirstConsume {
		s.stealFirstConsume = false
		s.account.ActionsThisPeriod++
		return false, nil
	}
	if s.account.ActionsThisPeriod != expectedUsed {
		return false, nil
	}
	s.account.ActionsThisPeriod++
	return true, nil
}

func TestApply_RetrySucceedsAgainstStorage(t *testing.T) {
	// A concurrent request consumes between our check and our CAS. The retry
	// must re-read storage: re-issuing the stale expected count would lose
	// again and refuse an action the quota permits.
	f := newApplyFixture(services.QuotaStatus{})
	store := &quotaStore{
		account: &models.Account{
			ID:                f.acc.ID,
			SubscriptionTier:  models.TierFree,
			ActionsThisPeriod: 1,
			PeriodAnchor:      time.Now().UTC(),
		},
		stealFirstConsume: true,
	}
	f.handler.Quota = services.NewTierPolicy(store)

	rec := f.do(f.opp.ID)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp applyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	// The concurrent winner took 1->2; our retry consumed 2->3.
	if resp.Used != 3 || resp.Remaining != 1 {
		t.Errorf("response = %+v, want used 3 remaining 1", resp)
	}
	if store.account.ActionsThisPeriod != 3 {
		t.Errorf("stored used = %d, want 3", store.account.ActionsThisPeriod)
	}
	if store.incrementCalls != 2 {
		t.Errorf("increment calls = %d, want 2", store.incrementCalls)
	}
	if len(f.apps.created) != 1 {
		t.Errorf("applications created = %d, want 1", len(f.apps.created))
	}
}

func TestApply_RetryExhaustsAtConflict(t *testing.T) {
	f := newApplyFixture(allowedStatus(1, 4))
	f.quota.consumeErrs = []error{
		services.ErrConcurrentModification,
		services.ErrConcurrentModification,
	}

	rec := f.do(f.opp.ID)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
	if f.quota.consumeCalls != 2 {
		t.Errorf("consume calls = %d, want exactly 2", f.quota.consumeCalls)
	}
	if len(f.apps.created) != 0 {
		t.Error("application created despite failed consume")
	}
}

func TestApply_RetryFindsQuotaExhausted(t *testing.T) {
	f := newApplyFixture(allowedStatus(3, 4))
	f.quota.consumeErrs = []error{services.ErrConcurrentModification}
	// The re-check after the conflict sees the quota already full.
	f.quota.statuses = []services.QuotaStatus{
		allowedStatus(3, 4),
		{Allowed: false, Used: 4, Max: 4},
	}

	rec := f.do(f.opp.ID)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestApply_DuplicateApplication(t *testing.T) {
	f := newApplyFixture(allowedStatus(0, 4))
	f.apps.exists = true

	rec := f.do(f.opp.ID)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
	if f.quota.consumeCalls != 0 {
		t.Errorf("duplicate apply charged the quota: %d consume calls", f.quota.consumeCalls)
	}
}

func TestApply_DuplicateRaceHitsConstraint(t *testing.T) {
	// The pre-check misses a concurrent first apply; the unique constraint
	// still turns the insert into a 409.
	f := newApplyFixture(allowedStatus(0, 4))
	f.apps.createErr = repository.ErrDuplicateApplication

	rec := f.do(f.opp.ID)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestApply_InvalidID(t *testing.T) {
	f := newApplyFixture(allowedStatus(0, 4))

	req := httptest.NewRequest(http.MethodPost, "/v1/opportunities/not-a-uuid/apply", nil)
	req.SetPathValue("id", "not-a-uuid")
	req = injectAccount(req, f.acc)
	rec := httptest.NewRecorder()
	f.handler.Apply(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestApply_Unauthorized(t *testing.T) {
	f := newApplyFixture(allowedStatus(0, 4))

	req := httptest.NewRequest(http.MethodPost, "/v1/opportunities/"+f.opp.ID.String()+"/apply", nil)
	req.SetPathValue("id", f.opp.ID.String())
	rec := httptest.NewRecorder()
	f.handler.Apply(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
