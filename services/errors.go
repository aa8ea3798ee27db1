package services

import (
	"errors"
	"strconv"

	"gorm.io/gorm"

	"github.com/cppla/aiblog/utils"
)

const (
	PostsCachePrefix      = "cache:posts:"
	CategoriesCachePrefix = "cache:categories:"
	TagsCachePrefix       = "cache:tags:"
)

// wrapErr maps gorm errors onto the application error kinds. Errors that
// already carry a kind pass through unchanged.
func wrapErr(err error, op, entity string) error {
	var appErr *utils.AppError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return utils.NotFound("%s not found", entity)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return utils.ConstraintViolation("%s with this slug already exists", entity)
	default:
		return utils.StorageFailure(op, err)
	}
}

// findByKey loads dest by numeric id, falling back to the slug column so
// all-digit slugs stay reachable.
func findByKey(db *gorm.DB, dest any, key string) error {
	db = db.Session(&gorm.Session{})
	if id, err := strconv.ParseUint(key, 10, 64); err == nil {
		err := db.First(dest, id).Error
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
	}
	return db.Where("slug = ?", key).First(dest).Error
}
