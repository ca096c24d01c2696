package storage

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/mattn/go-sqlite3"
)

// MapError classifies a driver error with repository.MapDatabaseError. The
// driver error stays reachable through errors.As, which the sqlite mapper
// alone would drop. Errors that are already classified pass through.
func MapError(err error, driver string) error {
	if err == nil || goerrors.IsWrapped(err) {
		return err
	}

	mapped := repository.MapDatabaseError(err, driver)
	var re *goerrors.RetryableError
	if goerrors.As(mapped, &re) && re.BaseError != nil && re.Source == nil {
		re.Source = err
	}
	return mapped
}

// UniqueColumn returns the column of table named by a duplicate key error, or
// "" when the driver does not tell. Use repository.IsDuplicatedKey to detect
// the violation itself.
func UniqueColumn(err error, table string) string {
	var liteErr sqlite3.Error
	if goerrors.As(err, &liteErr) {
		// "UNIQUE constraint failed: products.product_uid"
		msg := liteErr.Error()
		i := strings.LastIndex(msg, ": ")
		if i < 0 {
			return ""
		}
		target := msg[i+2:]
		if j := strings.Index(target, ","); j >= 0 {
			target = target[:j]
		}
		if j := strings.LastIndex(target, "."); j >= 0 {
			target = target[j+1:]
		}
		return strings.TrimSpace(target)
	}

	var re *goerrors.RetryableError
	if goerrors.As(err, &re) && re.BaseError != nil {
		// Index names follow Index.Name: <table>_<column>_unique.
		constraint, _ := re.Metadata["constraint"].(string)
		name := strings.TrimSuffix(constraint, "_unique")
		name = strings.TrimPrefix(name, table+"_")
		if name == constraint {
			return ""
		}
		return name
	}

	return ""
}
