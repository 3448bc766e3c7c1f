// Package auth implements credential verification, session issuance, account
// lockout, and password-reset flows over an in-memory user collection.
package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sort"
	"sync"
	"time"

	"ecommerce-core/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// userStore is the slice of the storage collaborator the auth service needs:
// a whole-collection replace of the users snapshot.
type userStore interface {
	PersistUsers(users map[string]domain.User) error
}

// Config carries the lockout and expiry knobs. A SessionTTL of zero means
// sessions never expire and live until explicit logout.
type Config struct {
	MaxFailedAttempts int
	LockDuration      time.Duration
	ResetTokenTTL     time.Duration
	SessionTTL        time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxFailedAttempts: 5,
		LockDuration:      15 * time.Minute,
		ResetTokenTTL:     30 * time.Minute,
		SessionTTL:        0,
	}
}

type session struct {
	userID    string
	expiresAt time.Time
}

type resetToken struct {
	username  string
	expiresAt time.Time
}

type Service struct {
	mu          sync.Mutex
	cfg         Config
	store       userStore
	logger      *zap.SugaredLogger
	users       map[string]domain.User
	idIndex     map[string]string
	sessions    map[string]session
	resetTokens map[string]resetToken
	now         func() time.Time
}

// New creates a Service. store may be nil, in which case user mutations are
// kept in memory only.
func New(cfg Config, store userStore, logger *zap.SugaredLogger) *Service {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{
		cfg:         cfg,
		store:       store,
		logger:      logger,
		users:       make(map[string]domain.User),
		idIndex:     make(map[string]string),
		sessions:    make(map[string]session),
		resetTokens: make(map[string]resetToken),
		now:         time.Now,
	}
}

// Load replaces the user collection with an already-deserialized snapshot.
func (s *Service) Load(users map[string]domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = make(map[string]domain.User, len(users))
	s.idIndex = make(map[string]string, len(users))
	for username, u := range users {
		s.users[username] = u
		s.idIndex[u.ID] = username
	}
}

type RegisterInput struct {
	Username        string
	FullName        string
	Password        string
	Role            domain.Role
	ShippingAddress string
}

// Register creates a user. Only admins may create other admins; a nil acting
// user is treated as system bootstrap.
func (s *Service) Register(in RegisterInput, actingUser *domain.User) (domain.User, error) {
	if in.Username == "" || in.Password == "" {
		return domain.User{}, fmt.Errorf("username and password required: %w", domain.ErrInvalidInput)
	}
	if in.Role == "" {
		in.Role = domain.RoleCustomer
	}
	if !domain.ValidRole(in.Role) {
		return domain.User{}, fmt.Errorf("unknown role %q: %w", in.Role, domain.ErrInvalidInput)
	}
	if in.Role == domain.RoleAdmin && actingUser != nil && actingUser.Role != domain.RoleAdmin {
		return domain.User{}, fmt.Errorf("only admins may create other admins: %w", domain.ErrAuthorization)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[in.Username]; ok {
		return domain.User{}, fmt.Errorf("user %s: %w", in.Username, domain.ErrAlreadyExists)
	}
	user := domain.User{
		ID:              uuid.NewString(),
		Username:        in.Username,
		FullName:        in.FullName,
		PasswordHash:    string(hash),
		Active:          true,
		Role:            in.Role,
		ShippingAddress: in.ShippingAddress,
	}
	s.users[user.Username] = user
	s.idIndex[user.ID] = user.Username
	if err := s.persistLocked(); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// Login verifies credentials and issues a fresh session token. Failed
// attempts are counted; reaching the threshold locks the account for the
// configured duration and restarts the counter from zero.
func (s *Service) Login(username, password string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[username]
	if !ok || !user.Active {
		return "", fmt.Errorf("invalid credentials: %w", domain.ErrAuthentication)
	}
	now := s.now().UTC()
	if user.Locked(now) {
		return "", fmt.Errorf("account temporarily locked: %w", domain.ErrAuthentication)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		user.FailedAttempts++
		if user.FailedAttempts >= s.cfg.MaxFailedAttempts {
			until := now.Add(s.cfg.LockDuration)
			user.LockedUntil = &until
			user.FailedAttempts = 0
		}
		s.users[username] = user
		if err := s.persistLocked(); err != nil {
			s.logger.Errorw("persist users after failed login", "username", username, "error", err)
		}
		return "", fmt.Errorf("invalid credentials: %w", domain.ErrAuthentication)
	}

	user.FailedAttempts = 0
	user.LockedUntil = nil
	s.users[username] = user

	token, err := randomToken(32)
	if err != nil {
		return "", err
	}
	sess := session{userID: user.ID}
	if s.cfg.SessionTTL > 0 {
		sess.expiresAt = now.Add(s.cfg.SessionTTL)
	}
	s.sessions[token] = sess
	if err := s.persistLocked(); err != nil {
		return "", err
	}
	return token, nil
}

// Logout removes the session if present. It is idempotent.
func (s *Service) Logout(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// ResolveUser maps a session token back to its user through the id index.
func (s *Service) ResolveUser(token string) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[token]
	if !ok {
		return domain.User{}, fmt.Errorf("session expired: %w", domain.ErrAuthentication)
	}
	if !sess.expiresAt.IsZero() && s.now().UTC().After(sess.expiresAt) {
		delete(s.sessions, token)
		return domain.User{}, fmt.Errorf("session expired: %w", domain.ErrAuthentication)
	}
	username, ok := s.idIndex[sess.userID]
	if !ok {
		return domain.User{}, fmt.Errorf("user no longer exists: %w", domain.ErrAuthentication)
	}
	return s.users[username], nil
}

// User looks up a user by username.
func (s *Service) User(username string) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[username]
	if !ok {
		return domain.User{}, fmt.Errorf("user %s: %w", username, domain.ErrNotFound)
	}
	return user, nil
}

// Users lists all users ordered by username.
func (s *Service) Users() []domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]domain.User, 0, len(s.users))
	for _, u := range s.users {
		result = append(result, u)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Username < result[j].Username })
	return result
}

// DeleteUser removes a user. Admin only; admins cannot delete themselves.
func (s *Service) DeleteUser(username string, actingUser domain.User) error {
	if err := RequireAdmin(actingUser); err != nil {
		return err
	}
	if username == actingUser.Username {
		return fmt.Errorf("admins cannot delete themselves: %w", domain.ErrAuthorization)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if user, ok := s.users[username]; ok {
		delete(s.users, username)
		delete(s.idIndex, user.ID)
	}
	return s.persistLocked()
}

// Unlock clears a user's lockout state. Admin only.
func (s *Service) Unlock(username string, actingUser domain.User) error {
	if err := RequireAdmin(actingUser); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[username]
	if !ok {
		return fmt.Errorf("user %s: %w", username, domain.ErrNotFound)
	}
	user.FailedAttempts = 0
	user.LockedUntil = nil
	s.users[username] = user
	return s.persistLocked()
}

// RequestPasswordReset issues a fresh single-use reset token with a fixed
// expiry window, independent of the login lockout state.
func (s *Service) RequestPasswordReset(username string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[username]; !ok {
		return "", fmt.Errorf("user not found: %w", domain.ErrAuthentication)
	}
	token, err := randomToken(16)
	if err != nil {
		return "", err
	}
	s.resetTokens[token] = resetToken{
		username:  username,
		expiresAt: s.now().UTC().Add(s.cfg.ResetTokenTTL),
	}
	return token, nil
}

// ResetPassword consumes a reset token, rehashes the password, and clears any
// lockout state.
func (s *Service) ResetPassword(token, newPassword string) error {
	if newPassword == "" {
		return fmt.Errorf("password required: %w", domain.ErrInvalidInput)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	payload, ok := s.resetTokens[token]
	if !ok || s.now().UTC().After(payload.expiresAt) {
		return fmt.Errorf("reset token invalid or expired: %w", domain.ErrAuthentication)
	}
	user, ok := s.users[payload.username]
	if !ok {
		delete(s.resetTokens, token)
		return fmt.Errorf("user no longer exists: %w", domain.ErrAuthentication)
	}
	user.PasswordHash = string(hash)
	user.FailedAttempts = 0
	user.LockedUntil = nil
	s.users[payload.username] = user
	delete(s.resetTokens, token)
	return s.persistLocked()
}

// Snapshot copies the user collection for persistence.
func (s *Service) Snapshot() map[string]domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Service) snapshotLocked() map[string]domain.User {
	users := make(map[string]domain.User, len(s.users))
	for username, u := range s.users {
		users[username] = u
	}
	return users
}

func (s *Service) persistLocked() error {
	if s.store == nil {
		return nil
	}
	return s.store.PersistUsers(s.snapshotLocked())
}

// RequireAdmin is a pure predicate over the user's role tag.
func RequireAdmin(user domain.User) error {
	if user.Role != domain.RoleAdmin {
		return fmt.Errorf("administrator privileges required: %w", domain.ErrAuthorization)
	}
	return nil
}

func randomToken(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
