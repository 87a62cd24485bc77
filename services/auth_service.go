package services

import (
	"casechat/auth"
	"casechat/domain"
	"casechat/errors"
	"casechat/repositories"
	"fmt"
	"time"
)

type IAuthService interface {
	Login(email, password string) (Token, domain.User, error)
	Register(req auth.RegisterRequest) (Token, domain.User, error)
}

type AuthService struct {
	users         repositories.IUserRepository
	tokenDuration time.Duration
}

type Token string

func NewAuthService(users repositories.IUserRepository, tokenDuration time.Duration) *AuthService {
	return &AuthService{users: users, tokenDuration: tokenDuration}
}

func (s *AuthService) Register(req auth.RegisterRequest) (Token, domain.User, error) {
	// 1. Validate business rules before any expensive cryptographic work.
	if err := auth.ValidateRegister(req); err != nil {
		return "", domain.User{}, fmt.Errorf("%w: %v", errors.ErrValidation, err)
	}

	// 2. Hash in the service layer so the repository never sees a plain
	// password.
	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		return "", domain.User{}, fmt.Errorf("hashing failed: %w", err)
	}

	role := domain.Role(req.Role)
	userID, err := s.users.CreateUser(req.Email, hashedPassword, req.DisplayName, role)
	if err != nil {
		return "", domain.User{}, err // propagates ErrUserAlreadyExists
	}

	user := domain.User{
		ID:          userID,
		Role:        role,
		DisplayName: req.DisplayName,
		Email:       req.Email,
	}
	token, err := auth.GenerateToken(user, s.tokenDuration)
	if err != nil {
		return "", domain.User{}, errors.ErrTokenGeneration
	}
	return Token(token), user, nil
}

func (s *AuthService) Login(email, password string) (Token, domain.User, error) {
	stored, err := s.users.GetUserByEmail(email)
	if err != nil {
		// Generic error to prevent user enumeration attacks.
		return "", domain.User{}, errors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(password, stored.PasswordHash)
	if err != nil || !match {
		return "", domain.User{}, errors.ErrInvalidCredentials
	}

	user := stored.ToDomain()
	token, err := auth.GenerateToken(user, s.tokenDuration)
	if err != nil {
		return "", domain.User{}, errors.ErrTokenGeneration
	}
	return Token(token), user, nil
}
