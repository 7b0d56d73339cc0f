// Package gormrepos implements the domain repositories over gorm, for both sqlite and Postgres.
package gormrepos

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// trapNotFound maps gorm's "record not found" to the domain's notFound error.
func trapNotFound(err, notFound error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return errors.Wrap(err, msg)
}

// trapDuplicate maps a unique constraint violation to the domain's duplicate error.
func trapDuplicate(err, duplicate error, msg string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return duplicate
	}
	return wrap(err, msg)
}

// wrap is errors.Wrap that keeps nil results nil.
func wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, msg)
}

// mustAffect turns an update or delete that matched no row into notFound.
func mustAffect(res *gorm.DB, notFound error, msg string) error {
	if res.Error != nil {
		return errors.Wrap(res.Error, msg)
	}
	if res.RowsAffected == 0 {
		return notFound
	}
	return nil
}
