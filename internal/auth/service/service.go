package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"trialreg/internal/audit"
	"trialreg/internal/auth/models"
	userStore "trialreg/internal/auth/store/user"
	jwttoken "trialreg/internal/jwt_token"
	id "trialreg/pkg/domain"
	dErrors "trialreg/pkg/domain-errors"
	"trialreg/pkg/platform/sentinel"
	"trialreg/pkg/requestcontext"
)

// UserStore persists users.
type UserStore interface {
	Save(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, userID id.UserID) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	Count(ctx context.Context) (int, error)
	List(ctx context.Context) ([]*models.User, error)
}

// TokenIssuer signs access tokens.
type TokenIssuer interface {
	GenerateAccessToken(subject jwttoken.Subject, expiresIn time.Duration) (string, error)
}

// AuditRecorder persists audit entries with fail-closed semantics.
type AuditRecorder interface {
	Record(ctx context.Context, rec audit.Record) error
}

// UserTx groups a user write with its audit entry. The context passed to fn
// carries the transaction.
type UserTx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type directTx struct{}

func (directTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// Service authenticates users and manages accounts.
type Service struct {
	users    UserStore
	tokens   TokenIssuer
	audit    AuditRecorder
	tx       UserTx
	tokenTTL time.Duration
	cost     int
	logger   *slog.Logger
	// dummyHash is compared against when the username is unknown.
	dummyHash []byte
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithTx(tx UserTx) Option {
	return func(s *Service) {
		s.tx = tx
	}
}

func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.tokenTTL = ttl
	}
}

// WithHashCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
func WithHashCost(cost int) Option {
	return func(s *Service) {
		s.cost = cost
	}
}

func New(users UserStore, tokens TokenIssuer, recorder AuditRecorder, opts ...Option) *Service {
	s := &Service{
		users:    users,
		tokens:   tokens,
		audit:    recorder,
		tx:       directTx{},
		tokenTTL: 8 * time.Hour,
		cost:     bcrypt.DefaultCost,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte(id.NewUserID().String()), s.cost)
	return s
}

// TokenResult is returned by Login.
type TokenResult struct {
	AccessToken string
	TokenType   string
	ExpiresIn   time.Duration
	User        *models.User
}

var errInvalidCredentials = dErrors.New(dErrors.CodeUnauthorized, "Usuario o contraseña incorrectos")

// Login checks the password and issues an access token.
func (s *Service) Login(ctx context.Context, username, password string) (*TokenResult, error) {
	if models.NormalizeUsername(username) == "" || password == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "Usuario y contraseña son obligatorios")
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			// Unknown usernames cost the same as bad passwords.
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			s.logger.InfoContext(ctx, "login failed",
				"reason", "unknown_user",
				"request_id", requestcontext.RequestID(ctx),
			)
			return nil, errInvalidCredentials
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to lookup user")
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		s.logger.InfoContext(ctx, "login failed",
			"reason", "bad_password",
			"user_id", user.ID.String(),
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil, errInvalidCredentials
	}

	token, err := s.tokens.GenerateAccessToken(jwttoken.Subject{
		UserID:   user.ID,
		Username: user.Username,
		FullName: user.FullName,
		IsStaff:  user.IsStaff,
	}, s.tokenTTL)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}

	s.logger.InfoContext(ctx, "user logged in",
		"user_id", user.ID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return &TokenResult{AccessToken: token, TokenType: "Bearer", ExpiresIn: s.tokenTTL, User: user}, nil
}

// CreateUserRequest describes a new account.
type CreateUserRequest struct {
	Username string
	FullName string
	Password string
	IsStaff  bool
}

// CreateUser registers an account and audits it as a User CREATE.
func (s *Service) CreateUser(ctx context.Context, req CreateUserRequest) (*models.User, error) {
	if _, ok := requestcontext.SessionFrom(ctx); !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if len(req.Password) < models.MinPasswordLength {
		return nil, dErrors.Newf(dErrors.CodeValidation,
			"La contraseña debe tener al menos %d caracteres", models.MinPasswordLength)
	}

	user, err := models.NewUser(id.NewUserID(), req.Username, req.FullName, req.IsStaff, requestcontext.Now(ctx))
	if err != nil {
		return nil, translateInvariant(err)
	}
	user.PasswordHash, err = bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "La contraseña no es válida")
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.users.Save(ctx, user); err != nil {
			if errors.Is(err, userStore.ErrUsernameTaken) {
				return dErrors.Newf(dErrors.CodeConflict, "El usuario %q ya existe", user.Username)
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save user")
		}
		return s.audit.Record(ctx, audit.Record{
			Action:   audit.ActionCreate,
			Model:    audit.ModelUser,
			RecordID: user.Username,
			Changes: audit.NewChangeSet().
				Add(audit.FieldUsername, user.Username).
				Add(audit.FieldFullName, user.FullName).
				Add(audit.FieldIsStaff, user.IsStaff),
		})
	})
	if err != nil {
		if _, ok := dErrors.As(err); ok {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}

	s.logger.InfoContext(ctx, "user created",
		"user_id", user.ID.String(),
		"is_staff", user.IsStaff,
		"request_id", requestcontext.RequestID(ctx),
	)
	return user, nil
}

// ListUsers returns every account ordered by username.
func (s *Service) ListUsers(ctx context.Context) ([]*models.User, error) {
	if _, ok := requestcontext.SessionFrom(ctx); !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list users")
	}
	return users, nil
}

// EnsureAdmin seeds a staff account when no user exists yet. It is a no-op
// when either credential is empty or any user is already present.
func (s *Service) EnsureAdmin(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return nil
	}
	n, err := s.users.Count(ctx)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to count users")
	}
	if n > 0 {
		return nil
	}

	ctx = requestcontext.WithSession(ctx, requestcontext.SystemSession)
	if _, err := s.CreateUser(ctx, CreateUserRequest{
		Username: username,
		FullName: "Administrador",
		Password: password,
		IsStaff:  true,
	}); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "bootstrap admin created", "username", models.NormalizeUsername(username))
	return nil
}

func translateInvariant(err error) error {
	if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
		return dErrors.New(dErrors.CodeValidation, dErrors.Message(err))
	}
	return err
}
