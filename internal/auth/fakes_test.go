package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/dichoptic/internal/logging"
	"github.com/redmonkez12/dichoptic/internal/user"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

// memoryUsers is an in-memory UserRepository
type memoryUsers struct {
	mu    sync.Mutex
	users map[uuid.UUID]*user.User
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{users: make(map[uuid.UUID]*user.User)}
}

func (m *memoryUsers) copyOf(u *user.User) *user.User {
	c := *u
	return &c
}

func (m *memoryUsers) find(pred func(*user.User) bool) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if pred(u) {
			return m.copyOf(u), nil
		}
	}
	return nil, user.ErrNotFound
}

func (m *memoryUsers) update(id uuid.UUID, fn func(*user.User) bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok || !fn(u) {
		return user.ErrNotFound
	}
	return nil
}

func (m *memoryUsers) Create(_ context.Context, email, passwordHash, verificationToken string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return nil, user.ErrDuplicateEmail
		}
	}
	now := time.Now()
	u := &user.User{
		ID:                uuid.New(),
		Email:             email,
		PasswordHash:      passwordHash,
		VerificationToken: &verificationToken,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	m.users[u.ID] = u
	return m.copyOf(u), nil
}

func (m *memoryUsers) GetByEmail(_ context.Context, email string) (*user.User, error) {
	return m.find(func(u *user.User) bool { return u.Email == email })
}

func (m *memoryUsers) GetByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	return m.find(func(u *user.User) bool { return u.ID == id })
}

func (m *memoryUsers) GetByVerificationToken(_ context.Context, token string) (*user.User, error) {
	return m.find(func(u *user.User) bool {
		return !u.IsVerified && u.VerificationToken != nil && *u.VerificationToken == token
	})
}

func (m *memoryUsers) GetByResetToken(_ context.Context, tokenHash string, now time.Time) (*user.User, error) {
	return m.find(func(u *user.User) bool {
		return u.ResetTokenHash != nil && *u.ResetTokenHash == tokenHash &&
			u.ResetTokenExpiry != nil && u.ResetTokenExpiry.After(now)
	})
}

func (m *memoryUsers) MarkEmailAsVerified(_ context.Context, id uuid.UUID) error {
	return m.update(id, func(u *user.User) bool {
		if u.IsVerified {
			return false
		}
		u.IsVerified = true
		u.VerificationToken = nil
		return true
	})
}

func (m *memoryUsers) UpdateVerificationToken(_ context.Context, id uuid.UUID, token string) error {
	return m.update(id, func(u *user.User) bool {
		if u.IsVerified {
			return false
		}
		u.VerificationToken = &token
		return true
	})
}

func (m *memoryUsers) SetResetToken(_ context.Context, id uuid.UUID, tokenHash string, expiresAt time.Time) error {
	return m.update(id, func(u *user.User) bool {
		u.ResetTokenHash = &tokenHash
		u.ResetTokenExpiry = &expiresAt
		return true
	})
}

func (m *memoryUsers) ResetPassword(_ context.Context, id uuid.UUID, passwordHash string) error {
	return m.update(id, func(u *user.User) bool {
		u.PasswordHash = passwordHash
		u.ResetTokenHash = nil
		u.ResetTokenExpiry = nil
		return true
	})
}

func (m *memoryUsers) SetRefreshToken(_ context.Context, id uuid.UUID, tokenHash string, expiresAt time.Time) error {
	return m.update(id, func(u *user.User) bool {
		u.RefreshTokenHash = &tokenHash
		u.RefreshTokenExpiry = &expiresAt
		return true
	})
}

func (m *memoryUsers) ClearRefreshToken(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		u.RefreshTokenHash = nil
		u.RefreshTokenExpiry = nil
	}
	return nil
}

// sentEmail records one dispatch
type sentEmail struct {
	kind  string
	to    string
	token string
}

// recordingEmail is an EmailService that remembers what it was asked to send
type recordingEmail struct {
	mu   sync.Mutex
	sent []sentEmail
	err  error
}

func (r *recordingEmail) SendVerificationEmail(_ context.Context, to, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentEmail{kind: "verify", to: to, token: token})
	return r.err
}

func (r *recordingEmail) SendPasswordResetEmail(_ context.Context, to, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentEmail{kind: "reset", to: to, token: token})
	return r.err
}

func (r *recordingEmail) all() []sentEmail {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sentEmail(nil), r.sent...)
}

func (r *recordingEmail) last(t *testing.T, kind string) sentEmail {
	t.Helper()
	sent := r.all()
	for i := len(sent) - 1; i >= 0; i-- {
		if sent[i].kind == kind {
			return sent[i]
		}
	}
	t.Fatalf("no %s email sent", kind)
	return sentEmail{}
}

// cheap argon2 parameters keep the suite fast
var testArgon2Params = argon2Params{time: 1, memory: 1024, threads: 1, keyLen: 32, saltLen: 16}

type testEnv struct {
	svc    *Service
	users  *memoryUsers
	emails *recordingEmail
	tokens *PasetoService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	tokens, err := NewPasetoService(testKey)
	require.NoError(t, err)

	users := newMemoryUsers()
	emails := &recordingEmail{}

	svc := NewService(users, tokens, emails, logging.Discard(), 15*time.Minute, 7*24*time.Hour, time.Hour)
	svc.hashParams = testArgon2Params
	svc.dummyHash, err = hashPassword("dummy", testArgon2Params)
	require.NoError(t, err)

	return &testEnv{svc: svc, users: users, emails: emails, tokens: tokens}
}

// registerVerified registers an account and completes email verification
func (e *testEnv) registerVerified(t *testing.T, email, password string) *user.User {
	t.Helper()
	ctx := context.Background()

	u, err := e.svc.Register(ctx, email, password)
	require.NoError(t, err)
	e.svc.Wait()

	require.NoError(t, e.svc.VerifyEmail(ctx, e.emails.last(t, "verify").token))
	return u
}
