// Package errors provides sentinel errors for provider data operations.
package errors

import "errors"

var ErrProviderNotFound = errors.New("provider data not found")
var ErrSaveProvider = errors.New("failed to save provider data")
var ErrUpdateProvider = errors.New("failed to update provider data")
var ErrRemoveProvider = errors.New("failed to remove provider data")
var ErrFailedToFindProvider = errors.New("failed to find provider data")

var ErrReferenceUnavailable = errors.New("reference data unavailable")

var ErrTransactionBegin = errors.New("failed to begin transaction")
var ErrTransactionCommit = errors.New("failed to commit transaction")
var ErrTransactionRollback = errors.New("failed to rollback transaction")
