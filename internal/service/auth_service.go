package service

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/yourusername/tugofwar-api/internal/domain/entity"
	"github.com/yourusername/tugofwar-api/internal/domain/repository"
	apperrors "github.com/yourusername/tugofwar-api/internal/pkg/errors"
	"github.com/yourusername/tugofwar-api/pkg/auth"
)

// AuthService отвечает за регистрацию и вход учителей
type AuthService struct {
	userRepo   repository.UserRepository
	jwtService *auth.JWTService
}

// NewAuthService создает новый сервис аутентификации
func NewAuthService(userRepo repository.UserRepository, jwtService *auth.JWTService) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		jwtService: jwtService,
	}
}

// Register создает учетную запись учителя.
// Пароль хешируется bcrypt-хуком сущности при сохранении.
func (s *AuthService) Register(username, email, password string) (*entity.User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" || email == "" {
		return nil, fmt.Errorf("%w: имя пользователя и email обязательны", apperrors.ErrValidation)
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("%w: пароль должен содержать не менее 8 символов", apperrors.ErrValidation)
	}

	user := &entity.User{
		Username: username,
		Email:    email,
		Password: password,
	}
	if err := s.userRepo.Create(user); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, fmt.Errorf("%w: пользователь с таким email уже существует", apperrors.ErrConflict)
		}
		return nil, fmt.Errorf("не удалось создать пользователя: %w", err)
	}

	log.Printf("[AuthService] Зарегистрирован пользователь #%d (%s)", user.ID, email)
	return user, nil
}

// Login проверяет учетные данные и выпускает JWT-токен
func (s *AuthService) Login(email, password string) (string, *entity.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return "", nil, apperrors.ErrUnauthorized
		}
		return "", nil, err
	}

	if !user.CheckPassword(password) {
		return "", nil, apperrors.ErrUnauthorized
	}

	token, err := s.jwtService.GenerateToken(user.ID, user.Email)
	if err != nil {
		return "", nil, fmt.Errorf("не удалось выпустить токен: %w", err)
	}

	log.Printf("[AuthService] Вход пользователя #%d (%s)", user.ID, email)
	return token, user, nil
}

// GetUserByID возвращает пользователя по ID
func (s *AuthService) GetUserByID(id uint) (*entity.User, error) {
	return s.userRepo.GetByID(id)
}

// UserExists проверяет существование пользователя
func (s *AuthService) UserExists(id uint) (bool, error) {
	return s.userRepo.Exists(id)
}
