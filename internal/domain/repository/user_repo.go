package repository

import (
	"github.com/yourusername/tugofwar-api/internal/domain/entity"
)

// UserRepository определяет методы для работы с учетными записями учителей
type UserRepository interface {
	Create(user *entity.User) error
	GetByID(id uint) (*entity.User, error)
	GetByEmail(email string) (*entity.User, error)
	Exists(id uint) (bool, error)
}
