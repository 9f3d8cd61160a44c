package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhive/backend/domain"
	"github.com/taskhive/backend/pkg/auth"
)

type fakeUserRepo struct {
	byID    map[string]*domain.User
	byEmail map[string]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byID:    make(map[string]*domain.User),
		byEmail: make(map[string]*domain.User),
	}
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	user, ok := r.byEmail[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	if _, ok := r.byEmail[user.Email]; ok {
		return nil, domain.ErrEmailTaken
	}
	user.ID = uuid.NewString()
	r.byID[user.ID] = user
	r.byEmail[user.Email] = user
	return user, nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	if _, ok := r.byID[user.ID]; !ok {
		return domain.ErrUserNotFound
	}
	r.byID[user.ID] = user
	r.byEmail[user.Email] = user
	return nil
}

type memorySessions struct {
	saved []*domain.Session
}

func (s *memorySessions) Get(context.Context, string) (*domain.Session, error) {
	return nil, domain.ErrSessionNotFound
}

func (s *memorySessions) Save(_ context.Context, session *domain.Session) error {
	s.saved = append(s.saved, session)
	return nil
}

func (s *memorySessions) Delete(context.Context, string) error      { return nil }
func (s *memorySessions) Extend(context.Context, string, int) error { return nil }

func setup(t *testing.T) (*UseCase, *fakeUserRepo, *memorySessions, *auth.TokenManager) {
	t.Helper()
	users := newFakeUserRepo()
	sessions := &memorySessions{}
	tokens := auth.NewTokenManager("test-secret", "taskhive", time.Hour)
	return New(users, sessions, tokens, time.Hour, nil), users, sessions, tokens
}

func TestRegisterIssuesVerifiableToken(t *testing.T) {
	uc, _, sessions, tokens := setup(t)

	user, token, err := uc.Register(context.Background(), "Alice", "alice@example.com", "correct horse battery")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.NotEmpty(t, user.ID)
	assert.NotEmpty(t, user.PasswordHash)
	assert.NotEqual(t, "correct horse battery", user.PasswordHash)

	userID, err := tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)

	require.Len(t, sessions.saved, 1)
	assert.Equal(t, user.ID, sessions.saved[0].UserID)
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	uc, _, _, _ := setup(t)

	_, _, err := uc.Register(context.Background(), "Alice", "alice@example.com", "short")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	uc, _, _, _ := setup(t)

	_, _, err := uc.Register(context.Background(), "Alice", "alice@example.com", "correct horse battery")
	require.NoError(t, err)

	_, _, err = uc.Register(context.Background(), "Other Alice", "alice@example.com", "different password")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeConflict))
}

func TestLoginSuccess(t *testing.T) {
	uc, _, _, tokens := setup(t)

	registered, _, err := uc.Register(context.Background(), "Alice", "alice@example.com", "correct horse battery")
	require.NoError(t, err)

	user, token, err := uc.Login(context.Background(), "alice@example.com", "correct horse battery")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)

	userID, err := tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, userID)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	uc, _, _, _ := setup(t)

	_, _, err := uc.Register(context.Background(), "Alice", "alice@example.com", "correct horse battery")
	require.NoError(t, err)

	_, _, wrongPassword := uc.Login(context.Background(), "alice@example.com", "wrong password!")
	_, _, unknownEmail := uc.Login(context.Background(), "nobody@example.com", "correct horse battery")

	assert.ErrorIs(t, wrongPassword, domain.ErrUnauthorized)
	assert.ErrorIs(t, unknownEmail, domain.ErrUnauthorized)
}

func TestIdentifyResolvesIdentity(t *testing.T) {
	uc, _, _, _ := setup(t)

	user, token, err := uc.Register(context.Background(), "Alice", "alice@example.com", "correct horse battery")
	require.NoError(t, err)

	identity, err := uc.Identify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, domain.Identity{UserID: user.ID, Name: "Alice"}, identity)
}

func TestIdentifyRejectsGarbageToken(t *testing.T) {
	uc, _, _, _ := setup(t)

	_, err := uc.Identify(context.Background(), "not-a-jwt")
	assert.Error(t, err)
}

func TestIdentifyRejectsTokenForDeletedUser(t *testing.T) {
	uc, users, _, _ := setup(t)

	user, token, err := uc.Register(context.Background(), "Alice", "alice@example.com", "correct horse battery")
	require.NoError(t, err)

	delete(users.byID, user.ID)

	_, err = uc.Identify(context.Background(), token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
