package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
)

// SignupInput carries the signup form. Name and StoreName are required for
// vendors and ignored for users.
type SignupInput struct {
	Name      string
	Email     string
	Password  string
	StoreName string
}

// AuthResult is returned by signup and login: the principal plus a freshly
// issued token.
type AuthResult struct {
	Principal *Principal
	Token     string
}

// Service implements signup and login over the user and vendor collections.
// Emails are stored trimmed and lower-cased.
type Service struct {
	users      PrincipalRepository
	vendors    PrincipalRepository
	tokens     *TokenIssuer
	bcryptCost int
}

// NewService creates an auth service. bcryptCost below MinBcryptCost is raised.
func NewService(users, vendors PrincipalRepository, tokens *TokenIssuer, bcryptCost int) *Service {
	if bcryptCost < MinBcryptCost {
		bcryptCost = MinBcryptCost
	}
	return &Service{
		users:      users,
		vendors:    vendors,
		tokens:     tokens,
		bcryptCost: bcryptCost,
	}
}

// Tokens returns the issuer used to sign tokens.
func (s *Service) Tokens() *TokenIssuer {
	return s.tokens
}

// Repository returns the collection holding principals of the given role.
func (s *Service) Repository(role Role) (PrincipalRepository, error) {
	switch role {
	case RoleUser:
		return s.users, nil
	case RoleVendor:
		return s.vendors, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
}

// SignupUser registers a shopper account.
func (s *Service) SignupUser(ctx context.Context, in SignupInput) (*AuthResult, error) {
	in = in.trimmed()
	if in.Email == "" || in.Password == "" {
		return nil, ErrMissingFields
	}
	return s.signup(ctx, s.users, &Principal{Email: in.Email}, in.Password)
}

// SignupVendor registers a store account.
func (s *Service) SignupVendor(ctx context.Context, in SignupInput) (*AuthResult, error) {
	in = in.trimmed()
	if in.Name == "" || in.Email == "" || in.Password == "" || in.StoreName == "" {
		return nil, ErrMissingFields
	}
	return s.signup(ctx, s.vendors, &Principal{
		Email:     in.Email,
		Name:      in.Name,
		StoreName: in.StoreName,
	}, in.Password)
}

// signup validates the email, checks for an existing record, hashes the
// password and inserts. The existence check is advisory: two concurrent
// signups can both pass it, and the UNIQUE index then rejects the loser
// with ErrEmailInUse from Create.
func (s *Service) signup(ctx context.Context, repo PrincipalRepository, p *Principal, password string) (*AuthResult, error) {
	if !IsValidEmail(p.Email) {
		return nil, ErrInvalidEmail
	}

	exists, err := repo.EmailExists(ctx, p.Email)
	if err != nil {
		return nil, fmt.Errorf("signup: %w", err)
	}
	if exists {
		return nil, ErrEmailInUse
	}

	hash, err := HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("signup: %w", err)
	}
	p.PasswordHash = hash

	if err := repo.Create(ctx, p); err != nil {
		if errors.Is(err, ErrEmailInUse) {
			return nil, ErrEmailInUse
		}
		return nil, fmt.Errorf("signup: %w", err)
	}

	return s.issue(p)
}

// Login authenticates against the collection for role.
//
// Unknown email and wrong password are reported separately
// (ErrIncorrectEmail, ErrIncorrectPassword).
func (s *Service) Login(ctx context.Context, role Role, email, password string) (*AuthResult, error) {
	repo, err := s.Repository(role)
	if err != nil {
		return nil, err
	}

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrMissingFields
	}

	p, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrPrincipalNotFound) {
			return nil, ErrIncorrectEmail
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	ok, err := VerifyPassword(password, p.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if !ok {
		return nil, ErrIncorrectPassword
	}

	return s.issue(p)
}

func (s *Service) issue(p *Principal) (*AuthResult, error) {
	token, err := s.tokens.Issue(p.ID, p.Role)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Principal: p, Token: token}, nil
}

func (in SignupInput) trimmed() SignupInput {
	return SignupInput{
		Name:      strings.TrimSpace(in.Name),
		Email:     strings.ToLower(strings.TrimSpace(in.Email)),
		Password:  in.Password,
		StoreName: strings.TrimSpace(in.StoreName),
	}
}

// IsValidEmail reports whether s is a bare addr-spec with a dotted domain,
// e.g. "a@x.com". Display-name forms such as "A <a@x.com>" are rejected.
func IsValidEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false
	}

	at := strings.LastIndexByte(s, '@')
	domain := s[at+1:]
	dot := strings.LastIndexByte(domain, '.')
	return dot > 0 && dot < len(domain)-1
}
