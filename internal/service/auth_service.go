package service

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/google/uuid"

	"github.com/citysafe/citysafe-backend/internal/logger"
	"github.com/citysafe/citysafe-backend/internal/models"
	"github.com/citysafe/citysafe-backend/internal/pkg/apperror"
	"github.com/citysafe/citysafe-backend/internal/repository"
	"github.com/citysafe/citysafe-backend/internal/validation"
)

// AuthRepository описывает зависимости AuthService от слоя хранилища.
type AuthRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateLastLoginAt(ctx context.Context, userID uuid.UUID) error
}

// AuthService инкапсулирует регистрацию и аутентификацию.
type AuthService struct {
	repo   AuthRepository
	tokens *TokenManager
}

// RegisterInput содержит данные пользователя при регистрации.
type RegisterInput struct {
	Email    string
	Password string
	FullName string
	Phone    string
}

// LoginInput содержит данные для входа.
type LoginInput struct {
	Email    string
	Password string
}

// AuthResult возвращает итог регистрации или авторизации.
type AuthResult struct {
	User  *models.User
	Token string
}

// NewAuthService создаёт сервис аутентификации.
func NewAuthService(repo AuthRepository, tokens *TokenManager) *AuthService {
	return &AuthService{repo: repo, tokens: tokens}
}

// Register создаёт нового пользователя и выпускает токен.
// Пароль всегда хранится как bcrypt-хэш.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, err
	}
	if err := validation.ValidateNonEmpty("full name", in.FullName); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, apperror.Validation("user with this email already exists")
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, apperror.Internal(err)
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: string(passHash),
		FullName:     strings.TrimSpace(in.FullName),
	}
	if phone := validation.NormalizePhone(in.Phone); phone != "" {
		if err := validation.ValidatePhone(in.Phone); err != nil {
			return nil, err
		}
		user.Phone = &phone
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, apperror.Internal(err)
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	return &AuthResult{User: user, Token: token}, nil
}

// Login проверяет учётные данные и возвращает токен.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.New(apperror.ErrCodeUnauthorized, "incorrect email or password")
		}
		return nil, apperror.Internal(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, apperror.New(apperror.ErrCodeUnauthorized, "incorrect email or password")
	}

	// Время последнего входа обновляем по возможности, ошибка не валит логин.
	if err := s.repo.UpdateLastLoginAt(ctx, user.ID); err != nil {
		if logger.Log != nil {
			logger.Log.WithFields(map[string]interface{}{
				"user_id": user.ID,
				"error":   err.Error(),
			}).Warn("auth service: не удалось обновить last_login_at")
		}
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	return &AuthResult{User: user, Token: token}, nil
}

// Me возвращает профиль пользователя по идентификатору из токена.
func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrUserNotFound
		}
		return nil, apperror.Internal(err)
	}
	return user, nil
}
