package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/careerforge/identity-service/internal/domain"
	"github.com/careerforge/identity-service/internal/repository"
	"github.com/careerforge/identity-service/internal/utils"
	"go.uber.org/zap"
)

const (
	sessionTokenBytes = 32
	defaultOrgName    = "Personal"
)

// sessionService implements SessionService interface
type sessionService struct {
	userRepo       repository.UserRepository
	orgRepo        repository.OrganizationRepository
	membershipRepo repository.MembershipRepository
	sessionRepo    repository.SessionRepository
	hashParams     utils.Argon2Params
	sessionTTL     time.Duration
	dummyHash      string
	logger         *zap.Logger
}

// NewSessionService creates a new session service
func NewSessionService(
	userRepo repository.UserRepository,
	orgRepo repository.OrganizationRepository,
	membershipRepo repository.MembershipRepository,
	sessionRepo repository.SessionRepository,
	hashParams utils.Argon2Params,
	sessionTTL time.Duration,
	logger *zap.Logger,
) (SessionService, error) {
	// Precomputed hash verified on unknown-email logins, so both failure
	// paths cost one KDF derivation.
	dummyHash, err := utils.HashPassword("decoy-password-never-matches", hashParams)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare decoy hash: %w", err)
	}

	return &sessionService{
		userRepo:       userRepo,
		orgRepo:        orgRepo,
		membershipRepo: membershipRepo,
		sessionRepo:    sessionRepo,
		hashParams:     hashParams,
		sessionTTL:     sessionTTL,
		dummyHash:      dummyHash,
		logger:         logger,
	}, nil
}

// Signup registers a new user with an organization and admin membership.
// It does not create a session; the caller decides whether to auto-login.
func (s *sessionService) Signup(ctx context.Context, email, password, orgName string) (*SignupResult, error) {
	email = utils.SanitizeEmail(email)

	if !utils.ValidateEmail(email) {
		return nil, fmt.Errorf("invalid email format: %w", ErrInvalidCredentials)
	}
	if !utils.ValidatePassword(password) {
		return nil, fmt.Errorf("password does not meet requirements: %w", ErrInvalidCredentials)
	}

	_, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		return nil, fmt.Errorf("signup for existing email: %w", ErrDuplicateEmail)
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check user existence: %w", err)
	}

	passwordHash, err := utils.HashPassword(password, s.hashParams)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: passwordHash,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// A concurrent signup may win the race past the existence check;
		// the unique index is the authority.
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, fmt.Errorf("signup for existing email: %w", ErrDuplicateEmail)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if orgName == "" {
		orgName = defaultOrgName
	}

	org := &domain.Organization{Name: orgName}
	if err := s.orgRepo.Create(ctx, org); err != nil {
		return nil, fmt.Errorf("failed to create organization: %w", err)
	}

	membership := &domain.Membership{
		UserID: user.ID,
		OrgID:  org.ID,
		Role:   domain.RoleAdmin,
		Status: domain.MembershipActive,
	}
	if err := s.membershipRepo.Upsert(ctx, membership); err != nil {
		return nil, fmt.Errorf("failed to create membership: %w", err)
	}

	s.logger.Info("user signed up",
		zap.String("user_id", user.ID),
		zap.String("org_id", org.ID),
	)

	return &SignupResult{User: user, Organization: org, Membership: membership}, nil
}

// Login authenticates a user and issues a new session. The error for an
// unknown email and for a wrong password is the same value, and both
// paths perform one KDF derivation.
func (s *sessionService) Login(ctx context.Context, email, password string, meta domain.RequestMeta) (*AuthContext, error) {
	email = utils.SanitizeEmail(email)

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.CheckPasswordHash(password, s.dummyHash)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !utils.CheckPasswordHash(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	membership, err := s.actingMembership(ctx, user)
	if err != nil {
		return nil, err
	}

	org, err := s.orgRepo.GetByID(ctx, membership.OrgID)
	if err != nil {
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}

	sessionID, err := utils.NewOpaqueToken(sessionTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to generate session id: %w", err)
	}

	session := &domain.Session{
		ID:        sessionID,
		UserID:    user.ID,
		OrgID:     org.ID,
		ExpiresAt: time.Now().Add(s.sessionTTL),
		UAHash:    utils.Fingerprint(meta.UserAgent),
		IPHash:    utils.Fingerprint(meta.IP),
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &AuthContext{
		User:         user,
		Organization: org,
		Role:         membership.Role,
		Session:      session,
	}, nil
}

// actingMembership picks the user's first active membership. A user with
// no active membership gets a fresh fallback organization: the data is
// inconsistent (an organization was deleted out-of-band) and failing
// would lock the user out of their own account.
func (s *sessionService) actingMembership(ctx context.Context, user *domain.User) (*domain.Membership, error) {
	memberships, err := s.membershipRepo.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}

	for _, m := range memberships {
		if m.IsActive() {
			return m, nil
		}
	}

	s.logger.Warn("user has no active membership, creating fallback organization",
		zap.String("user_id", user.ID),
	)

	org := &domain.Organization{Name: defaultOrgName}
	if err := s.orgRepo.Create(ctx, org); err != nil {
		return nil, fmt.Errorf("failed to create fallback organization: %w", err)
	}

	membership := &domain.Membership{
		UserID: user.ID,
		OrgID:  org.ID,
		Role:   domain.RoleAdmin,
		Status: domain.MembershipActive,
	}
	if err := s.membershipRepo.Upsert(ctx, membership); err != nil {
		return nil, fmt.Errorf("failed to create fallback membership: %w", err)
	}

	return membership, nil
}

// Logout deletes the session; deleting an absent session succeeds
func (s *sessionService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}

	if err := s.sessionRepo.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	return nil
}

// CurrentUser resolves a session identifier to its acting identity. An
// expired session is deleted on read and reported the same way as an
// absent one.
func (s *sessionService) CurrentUser(ctx context.Context, sessionID string) (*AuthContext, error) {
	if sessionID == "" {
		return nil, ErrSessionExpiredOrMissing
	}

	session, err := s.sessionRepo.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionExpiredOrMissing
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if session.IsExpired() {
		if err := s.sessionRepo.Delete(ctx, session.ID); err != nil {
			s.logger.Warn("failed to delete expired session", zap.String("session_id", session.ID), zap.Error(err))
		}
		return nil, ErrSessionExpiredOrMissing
	}

	user, err := s.userRepo.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionExpiredOrMissing
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	org, err := s.orgRepo.GetByID(ctx, session.OrgID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionExpiredOrMissing
		}
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}

	membership, err := s.membershipRepo.Get(ctx, session.UserID, session.OrgID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionExpiredOrMissing
		}
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	if !membership.IsActive() {
		return nil, ErrSessionExpiredOrMissing
	}

	return &AuthContext{
		User:         user,
		Organization: org,
		Role:         membership.Role,
		Session:      session,
	}, nil
}

// CreateOrganization creates an organization and an admin membership for
// the user. Re-creating a membership upserts the existing row.
func (s *sessionService) CreateOrganization(ctx context.Context, userID, name string) (*domain.Organization, error) {
	if name == "" {
		name = defaultOrgName
	}

	org := &domain.Organization{Name: name}
	if err := s.orgRepo.Create(ctx, org); err != nil {
		return nil, fmt.Errorf("failed to create organization: %w", err)
	}

	membership := &domain.Membership{
		UserID: userID,
		OrgID:  org.ID,
		Role:   domain.RoleAdmin,
		Status: domain.MembershipActive,
	}
	if err := s.membershipRepo.Upsert(ctx, membership); err != nil {
		return nil, fmt.Errorf("failed to create membership: %w", err)
	}

	return org, nil
}
