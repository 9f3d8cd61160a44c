package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskhive/backend/domain"
	"github.com/taskhive/backend/pkg/auth"
	"github.com/taskhive/backend/repository"
)

type UseCase struct {
	users      repository.UserRepository
	sessions   repository.SessionRepository
	tokens     *auth.TokenManager
	sessionTTL time.Duration
	logger     *zap.Logger
}

func New(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	tokens *auth.TokenManager,
	sessionTTL time.Duration,
	logger *zap.Logger,
) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	return &UseCase{
		users:      users,
		sessions:   sessions,
		tokens:     tokens,
		sessionTTL: sessionTTL,
		logger:     logger,
	}
}

// Register creates a new account and returns the user with a signed token.
func (uc *UseCase) Register(ctx context.Context, name, email, password string) (*domain.User, string, error) {
	if name == "" || email == "" || len(password) < 8 {
		return nil, "", domain.ErrInvalidPayload
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
	}
	created, err := uc.users.Create(ctx, user)
	if err != nil {
		return nil, "", err
	}

	token, err := uc.issue(ctx, created.ID)
	if err != nil {
		return nil, "", err
	}
	return created, token, nil
}

// Login verifies the credentials and returns the user with a signed token.
// Unknown email and wrong password collapse into the same unauthorized error.
func (uc *UseCase) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	user, err := uc.users.GetByEmail(ctx, email)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return nil, "", domain.ErrUnauthorized
		}
		return nil, "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, "", domain.ErrUnauthorized
	}

	token, err := uc.issue(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Identify resolves a verified identity for a raw token; the realtime
// handshake binds this identity to the connection for its whole lifetime.
func (uc *UseCase) Identify(ctx context.Context, token string) (domain.Identity, error) {
	userID, err := uc.tokens.Verify(token)
	if err != nil {
		return domain.Identity{}, err
	}
	user, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		return domain.Identity{}, domain.ErrUnauthorized
	}
	return user.Identity(), nil
}

func (uc *UseCase) issue(ctx context.Context, userID string) (string, error) {
	token, err := uc.tokens.Generate(userID)
	if err != nil {
		return "", err
	}

	session := &domain.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(uc.sessionTTL),
	}
	if err := uc.sessions.Save(ctx, session); err != nil {
		// Session bookkeeping is advisory; the signed token already
		// authenticates the user.
		uc.logger.Warn("failed to persist session", zap.Error(err))
	}
	return token, nil
}
