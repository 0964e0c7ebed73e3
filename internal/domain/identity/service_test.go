package identity

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yashdugar0209-creator/healthkey-sub000/internal/domain/audit"
	"github.com/yashdugar0209-creator/healthkey-sub000/internal/platform/auth"
	"github.com/yashdugar0209-creator/healthkey-sub000/internal/platform/db"
)

type mockUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[uuid.UUID]*User)}
}

func (m *mockUserRepo) Create(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Role == u.Role && existing.Identifier == u.Identifier {
			return ErrIdentifierTaken
		}
	}
	cp := *u
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	m.users[u.ID] = &cp
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *mockUserRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*User, error) {
	return m.GetByID(ctx, id)
}

func (m *mockUserRepo) GetByRoleIdentifier(_ context.Context, role Role, identifier string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Role == role && u.Identifier == identifier {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *mockUserRepo) UpdateStatus(_ context.Context, id uuid.UUID, status Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return ErrUserNotFound
	}
	u.Status = status
	return nil
}

func (m *mockUserRepo) ListByStatus(_ context.Context, status Status, limit, offset int) ([]*User, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*User
	for _, u := range m.users {
		if u.Status == status {
			cp := *u
			all = append(all, &cp)
		}
	}
	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

type mockPatientRepo struct {
	mu       sync.Mutex
	patients map[uuid.UUID]*Patient
}

func newMockPatientRepo() *mockPatientRepo {
	return &mockPatientRepo{patients: make(map[uuid.UUID]*Patient)}
}

func (m *mockPatientRepo) Create(_ context.Context, p *Patient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.patients[p.ID] = &cp
	return nil
}

func (m *mockPatientRepo) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.patients[id]
	if !ok {
		return nil, ErrProfileNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockPatientRepo) GetByCardID(_ context.Context, cardID string) (*Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.patients {
		if p.CardID != nil && *p.CardID == cardID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrProfileNotFound
}

func (m *mockPatientRepo) SetCard(_ context.Context, id uuid.UUID, cardID *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.patients[id]
	if !ok {
		return ErrProfileNotFound
	}
	p.CardID = cardID
	return nil
}

type mockDoctorRepo struct {
	mu      sync.Mutex
	doctors map[uuid.UUID]*Doctor
}

func newMockDoctorRepo() *mockDoctorRepo {
	return &mockDoctorRepo{doctors: make(map[uuid.UUID]*Doctor)}
}

func (m *mockDoctorRepo) Create(_ context.Context, d *Doctor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *d
	m.doctors[d.ID] = &cp
	return nil
}

func (m *mockDoctorRepo) GetByID(_ context.Context, id uuid.UUID) (*Doctor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.doctors[id]
	if !ok {
		return nil, ErrProfileNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *mockDoctorRepo) UpdateStatusByUserID(_ context.Context, userID uuid.UUID, status ProfileStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.doctors {
		if d.UserID == userID {
			d.Status = status
			return nil
		}
	}
	return ErrProfileNotFound
}

type mockHospitalRepo struct {
	mu        sync.Mutex
	hospitals map[uuid.UUID]*Hospital
}

func newMockHospitalRepo() *mockHospitalRepo {
	return &mockHospitalRepo{hospitals: make(map[uuid.UUID]*Hospital)}
}

func (m *mockHospitalRepo) Create(_ context.Context, h *Hospital) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *h
	m.hospitals[h.ID] = &cp
	return nil
}

func (m *mockHospitalRepo) GetByID(_ context.Context, id uuid.UUID) (*Hospital, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.hospitals[id]
	if !ok {
		return nil, ErrProfileNotFound
	}
	cp := *h
	return &cp, nil
}

func (m *mockHospitalRepo) UpdateStatusByUserID(_ context.Context, userID uuid.UUID, status ProfileStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, h := range m.hospitals {
		if h.UserID == userID {
			h.Status = status
			return nil
		}
	}
	return ErrProfileNotFound
}

type recordedAudit struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (r *recordedAudit) Record(_ context.Context, e audit.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return nil
}

func (r *recordedAudit) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.Action
	}
	return out
}

type testEnv struct {
	svc       *Service
	users     *mockUserRepo
	patients  *mockPatientRepo
	doctors   *mockDoctorRepo
	hospitals *mockHospitalRepo
	audit     *recordedAudit
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		users:     newMockUserRepo(),
		patients:  newMockPatientRepo(),
		doctors:   newMockDoctorRepo(),
		hospitals: newMockHospitalRepo(),
		audit:     &recordedAudit{},
	}
	tokens := auth.NewTokenIssuer([]byte("test-secret"), time.Hour)
	env.svc = NewService(env.users, env.patients, env.doctors, env.hospitals, tokens, env.audit, db.PassthroughTxRunner())
	return env
}

func TestRegisterPatientIsActiveImmediately(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	reg, err := env.svc.RegisterPatient(ctx, RegisterPatientInput{
		Name:       "Asha Rao",
		Mobile:     "9876543210",
		Password:   "secret",
		BloodGroup: "O+",
	})
	if err != nil {
		t.Fatalf("RegisterPatient: %v", err)
	}
	if reg.Status != StatusActive {
		t.Fatalf("patient status = %s, want %s", reg.Status, StatusActive)
	}

	session, err := env.svc.Login(ctx, RolePatient, "9876543210", "secret")
	if err != nil {
		t.Fatalf("Login after patient registration: %v", err)
	}
	if session.Token == "" {
		t.Fatal("expected a session token")
	}

	p, err := env.patients.GetByID(ctx, reg.ProfileID)
	if err != nil {
		t.Fatalf("patient profile missing: %v", err)
	}
	if p.UserID != reg.UserID {
		t.Fatalf("profile user id = %s, want %s", p.UserID, reg.UserID)
	}
}

func TestRegisterPatientValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cases := []struct {
		name string
		in   RegisterPatientInput
		want error
	}{
		{"missing name", RegisterPatientInput{Mobile: "1", Password: "x"}, ErrMissingName},
		{"missing mobile", RegisterPatientInput{Name: "A", Password: "x"}, ErrMissingIdentifier},
		{"missing password", RegisterPatientInput{Name: "A", Mobile: "1"}, ErrMissingPassword},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := env.svc.RegisterPatient(ctx, tc.in); !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestDoctorPendingUntilDecision(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	reg, err := env.svc.RegisterDoctor(ctx, RegisterDoctorInput{
		Name:     "Dr. Mehta",
		Email:    "mehta@example.com",
		Password: "secret",
	})
	if err != nil {
		t.Fatalf("RegisterDoctor: %v", err)
	}
	if reg.Status != StatusPending {
		t.Fatalf("doctor status = %s, want %s", reg.Status, StatusPending)
	}

	if _, err := env.svc.Login(ctx, RoleDoctor, "mehta@example.com", "secret"); !errors.Is(err, ErrPendingApproval) {
		t.Fatalf("login while pending = %v, want %v", err, ErrPendingApproval)
	}

	adminID := uuid.New()
	decided, err := env.svc.Decide(ctx, adminID, reg.UserID, DecisionApprove)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if decided.Status != StatusActive {
		t.Fatalf("decided status = %s, want %s", decided.Status, StatusActive)
	}

	d, err := env.doctors.GetByID(ctx, reg.ProfileID)
	if err != nil {
		t.Fatalf("doctor profile: %v", err)
	}
	if d.Status != ProfileApproved {
		t.Fatalf("profile status = %s, want %s; user and profile must move together", d.Status, ProfileApproved)
	}

	if _, err := env.svc.Login(ctx, RoleDoctor, "mehta@example.com", "secret"); err != nil {
		t.Fatalf("login after approval: %v", err)
	}
}

func TestDecisionIsTerminal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	reg, err := env.svc.RegisterHospital(ctx, RegisterHospitalInput{
		Name:     "City Hospital",
		Email:    "city@example.com",
		Password: "secret",
	})
	if err != nil {
		t.Fatalf("RegisterHospital: %v", err)
	}

	adminID := uuid.New()
	if _, err := env.svc.Decide(ctx, adminID, reg.UserID, DecisionReject); err != nil {
		t.Fatalf("first decision: %v", err)
	}

	if _, err := env.svc.Decide(ctx, adminID, reg.UserID, DecisionApprove); !errors.Is(err, ErrStateConflict) {
		t.Fatalf("opposite decision = %v, want %v", err, ErrStateConflict)
	}

	// Re-confirming the same terminal state is a no-op.
	user, err := env.svc.Decide(ctx, adminID, reg.UserID, DecisionReject)
	if err != nil {
		t.Fatalf("re-confirming rejection: %v", err)
	}
	if user.Status != StatusRejected {
		t.Fatalf("status = %s, want %s", user.Status, StatusRejected)
	}

	if _, err := env.svc.Login(ctx, RoleHospital, "city@example.com", "secret"); !errors.Is(err, ErrAccountRejected) {
		t.Fatalf("login after rejection = %v, want %v", err, ErrAccountRejected)
	}

	h, err := env.hospitals.GetByID(ctx, reg.ProfileID)
	if err != nil {
		t.Fatalf("hospital profile: %v", err)
	}
	if h.Status != ProfileRejected {
		t.Fatalf("profile status = %s, want %s", h.Status, ProfileRejected)
	}
}

func TestDecideRejectsPatientsAndUnknownUsers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	reg, err := env.svc.RegisterPatient(ctx, RegisterPatientInput{
		Name: "Asha", Mobile: "1", Password: "x", BloodGroup: "A+",
	})
	if err != nil {
		t.Fatalf("RegisterPatient: %v", err)
	}

	adminID := uuid.New()
	if _, err := env.svc.Decide(ctx, adminID, reg.UserID, DecisionApprove); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("decide on patient = %v, want %v", err, ErrInvalidRole)
	}
	if _, err := env.svc.Decide(ctx, adminID, uuid.New(), DecisionApprove); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("decide on unknown = %v, want %v", err, ErrUserNotFound)
	}
	if _, err := env.svc.Decide(ctx, adminID, reg.UserID, Decision("maybe")); !errors.Is(err, ErrInvalidDecision) {
		t.Fatalf("bad decision = %v, want %v", err, ErrInvalidDecision)
	}
}

func TestLoginErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.svc.RegisterPatient(ctx, RegisterPatientInput{
		Name: "Asha", Mobile: "9876543210", Password: "secret", BloodGroup: "O+",
	}); err != nil {
		t.Fatalf("RegisterPatient: %v", err)
	}

	if _, err := env.svc.Login(ctx, RolePatient, "9876543210", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password = %v, want %v", err, ErrInvalidCredentials)
	}
	if _, err := env.svc.Login(ctx, RolePatient, "0000000000", "secret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown identifier = %v, want %v", err, ErrInvalidCredentials)
	}
	// Same identifier under a different role does not exist.
	if _, err := env.svc.Login(ctx, RoleDoctor, "9876543210", "secret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong role = %v, want %v", err, ErrInvalidCredentials)
	}
	if _, err := env.svc.Login(ctx, Role("ghost"), "9876543210", "secret"); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("invalid role = %v, want %v", err, ErrInvalidRole)
	}
}

func TestIdentifierUniquePerRole(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.svc.RegisterDoctor(ctx, RegisterDoctorInput{
		Name: "Dr. A", Email: "shared@example.com", Password: "x",
	}); err != nil {
		t.Fatalf("first doctor: %v", err)
	}

	if _, err := env.svc.RegisterDoctor(ctx, RegisterDoctorInput{
		Name: "Dr. B", Email: "shared@example.com", Password: "y",
	}); !errors.Is(err, ErrIdentifierTaken) {
		t.Fatalf("duplicate doctor = %v, want %v", err, ErrIdentifierTaken)
	}

	// The same address may back a hospital account.
	if _, err := env.svc.RegisterHospital(ctx, RegisterHospitalInput{
		Name: "Shared Clinic", Email: "shared@example.com", Password: "z",
	}); err != nil {
		t.Fatalf("same identifier under another role: %v", err)
	}
}

func TestListRegistrations(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := env.svc.RegisterDoctor(ctx, RegisterDoctorInput{
			Name:     "Dr. Pending",
			Email:    uuid.NewString() + "@example.com",
			Password: "x",
		}); err != nil {
			t.Fatalf("RegisterDoctor: %v", err)
		}
	}
	// Active patients never show up in the queue.
	if _, err := env.svc.RegisterPatient(ctx, RegisterPatientInput{
		Name: "Asha", Mobile: "1", Password: "x", BloodGroup: "A+",
	}); err != nil {
		t.Fatalf("RegisterPatient: %v", err)
	}

	items, total, err := env.svc.ListRegistrations(ctx, 10, 0)
	if err != nil {
		t.Fatalf("ListRegistrations: %v", err)
	}
	if total != 3 || len(items) != 3 {
		t.Fatalf("got %d items, total %d, want 3/3", len(items), total)
	}
}

func TestAuditTrailCoversWorkflow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	reg, err := env.svc.RegisterDoctor(ctx, RegisterDoctorInput{
		Name: "Dr. A", Email: "a@example.com", Password: "x",
	})
	if err != nil {
		t.Fatalf("RegisterDoctor: %v", err)
	}
	if _, err := env.svc.Decide(ctx, uuid.New(), reg.UserID, DecisionApprove); err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if _, err := env.svc.Login(ctx, RoleDoctor, "a@example.com", "x"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	want := []string{audit.ActionRegister, audit.ActionApprove, audit.ActionLogin}
	got := env.audit.actions()
	if len(got) != len(want) {
		t.Fatalf("audit actions = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("audit action[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}
