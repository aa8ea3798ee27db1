package auth

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/cppla/aiblog/models"
	"github.com/cppla/aiblog/utils"
)

// UserStore is the identity lookup the resolver and backends depend on.
type UserStore interface {
	// FindByID returns a NotFound error when no user has the id.
	FindByID(ctx context.Context, id uint) (*models.User, error)
	// FindByUsername returns a NotFound error when the username is unknown.
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	// FirstActive returns the active user with the lowest id, or nil when there is none.
	FirstActive(ctx context.Context) (*models.User, error)
}

// GormUserStore reads and writes users through gorm.
type GormUserStore struct {
	db *gorm.DB
}

func NewGormUserStore(db *gorm.DB) *GormUserStore {
	return &GormUserStore{db: db}
}

func (s *GormUserStore) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, userErr(err, "user %d not found", id)
	}
	return &user, nil
}

func (s *GormUserStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, userErr(err, "user %q not found", username)
	}
	return &user, nil
}

func (s *GormUserStore) FirstActive(ctx context.Context) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("is_active = ?", true).Order("id ASC").First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, utils.StorageFailure("load active user", err)
	}
	return &user, nil
}

// Create inserts a new account. A taken username is a ConstraintViolation.
func (s *GormUserStore) Create(ctx context.Context, user *models.User) error {
	err := s.db.WithContext(ctx).Create(user).Error
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return utils.ConstraintViolation("username %q already exists", user.Username)
	default:
		return utils.StorageFailure("create user", err)
	}
}

func userErr(err error, format string, args ...any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return utils.NotFound(format, args...)
	}
	return utils.StorageFailure("load user", err)
}
