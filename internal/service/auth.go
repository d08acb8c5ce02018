package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/levelupgamer/levelup_shop/internal/models"
	"github.com/levelupgamer/levelup_shop/internal/referral"
	"github.com/levelupgamer/levelup_shop/internal/repo"
	pkg_hash "github.com/levelupgamer/levelup_shop/pkg/hash"
	"github.com/levelupgamer/levelup_shop/pkg/logging"
	"github.com/levelupgamer/levelup_shop/pkg/mykafka"
	"github.com/levelupgamer/levelup_shop/pkg/tokens"
)

const (
	MinimumAge         = 18
	InstitutionalBonus = 200
	ReferralBonus      = 50

	identityTaken = "username or email already in use"
)

type AuthService struct {
	Repo                 *repo.GormRepo
	JWTSecret            []byte
	InstitutionalDomains []string
	Events               mykafka.Publisher
	Graph                ReferralGraph
	Now                  func() time.Time
}

type RegisterInput struct {
	Username     string
	Email        string
	Password     string
	Birthdate    string
	ReferralCode string
}

type ProfileUpdate struct {
	Username  *string
	Email     *string
	Birthdate *string
}

type AdminUserUpdate struct {
	Username *string
	Email    *string
	Role     *string
	Points   *int
}

type AddressInput struct {
	Alias      string
	Street     string
	City       string
	Region     string
	PostalCode string
}

type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	User      *models.User
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// ParseBirthdate accepts a calendar date or a full RFC 3339 timestamp.
func ParseBirthdate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if t, err := time.Parse(time.DateOnly, v); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, validation("birthdate must be YYYY-MM-DD")
	}
	return t.UTC(), nil
}

func (s *AuthService) checkBirthdate(v string) (time.Time, error) {
	birth, err := ParseBirthdate(v)
	if err != nil {
		return time.Time{}, err
	}
	if models.AgeOn(birth, s.now()) < MinimumAge {
		return time.Time{}, validation("you must be at least %d years old", MinimumAge)
	}
	return birth, nil
}

func normalizeEmail(v string) (string, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	addr, err := mail.ParseAddress(v)
	if err != nil || addr.Address != v {
		return "", validation("invalid email")
	}
	return v, nil
}

func (s *AuthService) institutional(email string) bool {
	domain := email[strings.LastIndex(email, "@")+1:]
	for _, d := range s.InstitutionalDomains {
		if strings.EqualFold(domain, d) {
			return true
		}
	}
	return false
}

func (s *AuthService) issue(u *models.User) (*AuthResult, error) {
	token, exp, err := tokens.NewAccessToken(s.JWTSecret, u.ID.String(), string(u.Role), u.Username, s.now())
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &AuthResult{Token: token, ExpiresAt: exp, User: u}, nil
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	username := strings.TrimSpace(in.Username)
	if username == "" || in.Email == "" || in.Password == "" {
		return nil, validation("username, email and password are required")
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	birth, err := s.checkBirthdate(in.Birthdate)
	if err != nil {
		return nil, err
	}

	taken, err := s.Repo.IdentityTaken(ctx, username, email, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("%w: %s", ErrConflict, identityTaken)
	}

	pwHash, err := pkg_hash.HashPassword(in.Password)
	if errors.Is(err, pkg_hash.ErrPasswordTooLong) {
		return nil, validation("password must be at most %d bytes", pkg_hash.MaxPasswordBytes)
	}
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: pwHash,
		Birthdate:    birth,
		Role:         models.RoleUser,
		ReferredBy:   strings.TrimSpace(in.ReferralCode),
	}
	if s.institutional(email) {
		user.Points = InstitutionalBonus
	}

	credited, err := s.Repo.CreateUser(ctx, user, user.ReferredBy, ReferralBonus)
	if err != nil {
		return nil, fromRepo(err, identityTaken)
	}
	if credited {
		s.recordReferral(ctx, user)
	}

	l.Info("user_registered", "user_id", user.ID, "referred", credited)
	publish(ctx, s.Events, mykafka.TopicUsers, user.ID.String(), map[string]any{
		"type":     "user_registered",
		"userID":   user.ID.String(),
		"username": user.Username,
		"referrer": user.ReferredBy,
	})

	return s.issue(user)
}

func (s *AuthService) recordReferral(ctx context.Context, user *models.User) {
	if s.Graph == nil {
		return
	}
	l := logging.FromContext(ctx)
	referrer, err := s.Repo.UserByUsername(ctx, user.ReferredBy)
	if err != nil {
		l.Warn("record_referral_failed", "reason", "referrer lookup", "error", err)
		return
	}
	err = s.Graph.RecordReferral(ctx,
		referral.Customer{ID: referrer.ID.String(), Username: referrer.Username},
		referral.Customer{ID: user.ID.String(), Username: user.Username},
	)
	if err != nil {
		l.Warn("record_referral_failed", "reason", "graph write", "error", err)
	}
}

func (s *AuthService) Login(ctx context.Context, usernameOrEmail, password string) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	ident := strings.TrimSpace(usernameOrEmail)
	if ident == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	if strings.Contains(ident, "@") {
		ident = strings.ToLower(ident)
	}

	user, err := s.Repo.UserByLogin(ctx, ident)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !pkg_hash.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	l.Info("user_logged_in", "user_id", user.ID)
	publish(ctx, s.Events, mykafka.TopicUsers, user.ID.String(), map[string]any{
		"type":   "user_logged_in",
		"userID": user.ID.String(),
	})
	return s.issue(user)
}

func (s *AuthService) GetSelf(ctx context.Context, p Principal) (*models.User, error) {
	return s.Repo.UserByID(ctx, p.UserID)
}

func (s *AuthService) UpdateProfile(ctx context.Context, p Principal, in ProfileUpdate) (*models.User, error) {
	current, err := s.Repo.UserByID(ctx, p.UserID)
	if err != nil {
		return nil, err
	}

	updates, err := s.identityUpdates(ctx, current, in.Username, in.Email)
	if err != nil {
		return nil, err
	}
	if in.Birthdate != nil {
		birth, err := s.checkBirthdate(*in.Birthdate)
		if err != nil {
			return nil, err
		}
		updates["birthdate"] = birth
	}

	u, err := s.Repo.UpdateUser(ctx, p.UserID, updates)
	if err != nil {
		return nil, fromRepo(err, identityTaken)
	}
	return u, nil
}

func (s *AuthService) identityUpdates(ctx context.Context, current *models.User, username, email *string) (map[string]any, error) {
	updates := map[string]any{}
	newUsername, newEmail := current.Username, current.Email

	if username != nil {
		newUsername = strings.TrimSpace(*username)
		if newUsername == "" {
			return nil, validation("username cannot be empty")
		}
		updates["username"] = newUsername
	}
	if email != nil {
		e, err := normalizeEmail(*email)
		if err != nil {
			return nil, err
		}
		newEmail = e
		updates["email"] = newEmail
	}

	if len(updates) > 0 {
		taken, err := s.Repo.IdentityTaken(ctx, newUsername, newEmail, current.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, fmt.Errorf("%w: %s", ErrConflict, identityTaken)
		}
	}
	return updates, nil
}

func (s *AuthService) AddAddress(ctx context.Context, p Principal, in AddressInput) ([]models.Address, error) {
	if strings.TrimSpace(in.Street) == "" || strings.TrimSpace(in.City) == "" {
		return nil, validation("street and city are required")
	}
	addr := &models.Address{
		UserID:     p.UserID,
		Alias:      strings.TrimSpace(in.Alias),
		Street:     strings.TrimSpace(in.Street),
		City:       strings.TrimSpace(in.City),
		Region:     strings.TrimSpace(in.Region),
		PostalCode: strings.TrimSpace(in.PostalCode),
	}
	if err := s.Repo.AddAddress(ctx, addr); err != nil {
		return nil, err
	}
	return s.addresses(ctx, p.UserID)
}

func (s *AuthService) RemoveAddress(ctx context.Context, p Principal, addressID uuid.UUID) ([]models.Address, error) {
	if err := s.Repo.DeleteAddress(ctx, p.UserID, addressID); err != nil {
		return nil, err
	}
	return s.addresses(ctx, p.UserID)
}

func (s *AuthService) addresses(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	u, err := s.Repo.UserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return u.Addresses, nil
}

func (s *AuthService) ListUsers(ctx context.Context, p Principal) ([]models.User, error) {
	if err := p.RequireAdmin(); err != nil {
		return nil, err
	}
	return s.Repo.ListUsers(ctx)
}

func (s *AuthService) UpdateUser(ctx context.Context, p Principal, id uuid.UUID, in AdminUserUpdate) (*models.User, error) {
	if err := p.RequireAdmin(); err != nil {
		return nil, err
	}
	current, err := s.Repo.UserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updates, err := s.identityUpdates(ctx, current, in.Username, in.Email)
	if err != nil {
		return nil, err
	}
	if in.Role != nil {
		role := models.Role(*in.Role)
		if !role.Valid() {
			return nil, validation("unknown role %q", *in.Role)
		}
		updates["role"] = role
	}
	if in.Points != nil {
		if *in.Points < 0 {
			return nil, validation("points cannot be negative")
		}
		updates["points"] = *in.Points
	}

	u, err := s.Repo.UpdateUser(ctx, id, updates)
	if err != nil {
		return nil, fromRepo(err, identityTaken)
	}
	return u, nil
}

func (s *AuthService) DeleteUser(ctx context.Context, p Principal, id uuid.UUID) error {
	if err := p.RequireAdmin(); err != nil {
		return err
	}
	if err := s.Repo.DeleteUser(ctx, id); err != nil {
		return err
	}
	publish(ctx, s.Events, mykafka.TopicUsers, id.String(), map[string]any{
		"type":   "user_deleted",
		"userID": id.String(),
	})
	return nil
}

// ListReferrals returns the users who registered with id's username as referral code.
func (s *AuthService) ListReferrals(ctx context.Context, p Principal, id uuid.UUID) ([]referral.Customer, error) {
	if err := p.RequireAdmin(); err != nil {
		return nil, err
	}
	u, err := s.Repo.UserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.Graph != nil {
		out, err := s.Graph.Referrals(ctx, u.ID.String())
		if err == nil {
			return out, nil
		}
		logging.FromContext(ctx).Warn("graph_referrals_failed", "user_id", id, "error", err)
	}

	users, err := s.Repo.UsersReferredBy(ctx, u.Username)
	if err != nil {
		return nil, err
	}
	out := make([]referral.Customer, 0, len(users))
	for _, r := range users {
		out = append(out, referral.Customer{ID: r.ID.String(), Username: r.Username})
	}
	return out, nil
}

func (s *AuthService) PromoteToAdmin(ctx context.Context, email string) error {
	e, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	return s.Repo.PromoteByEmail(ctx, e)
}
