package services

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/SAP-F-2025/question-import-service/internal/bundle"
	apperrors "github.com/SAP-F-2025/question-import-service/internal/errors"
	"github.com/SAP-F-2025/question-import-service/internal/sheet"
	"github.com/SAP-F-2025/question-import-service/internal/storage"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrUnauthorized     = errors.New("unauthorized access")
	ErrForbidden        = errors.New("forbidden - insufficient permissions")
	ErrValidationFailed = errors.New("validation failed")
	ErrBadRequest       = errors.New("bad request")

	// Import specific errors
	ErrImportJobNotFound    = errors.New("import job not found")
	ErrImportAccessDenied   = errors.New("access denied to import job")
	ErrSheetUnreadable      = errors.New("sheet file cannot be read")
	ErrPersistenceDisabled  = errors.New("question persistence is disabled")
	ErrImportStoreFailed    = errors.New("imported questions could not be stored")
	ErrImportAlreadyRunning = errors.New("import job is still processing")
	ErrMediaNotFound        = errors.New("media file not found")
	ErrMediaAccessDenied    = errors.New("access denied to media file")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

// ===== ERROR HELPERS =====

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrImportJobNotFound) ||
		errors.Is(err, ErrMediaNotFound)
}

// IsUnauthorized checks if error represents an "unauthorized" condition
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrImportAccessDenied) ||
		errors.Is(err, ErrMediaAccessDenied)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) {
		return true
	}
	var ve ValidationErrors
	if errors.As(err, &ve) {
		return true
	}
	var single *ValidationError
	return errors.As(err, &single)
}

// IsBadInput checks if error was caused by the uploaded bundle itself
func IsBadInput(err error) bool {
	return errors.Is(err, ErrBadRequest) ||
		errors.Is(err, ErrSheetUnreadable) ||
		errors.Is(err, bundle.ErrInputMissing) ||
		errors.Is(err, bundle.ErrArchiveUnreadable) ||
		errors.Is(err, bundle.ErrNoSheetFile) ||
		errors.Is(err, bundle.ErrUnsupportedFormat) ||
		errors.Is(err, bundle.ErrBundleTooLarge) ||
		errors.Is(err, sheet.ErrNoSheets) ||
		errors.Is(err, sheet.ErrCorruptWorkbook)
}

// IsTooLarge checks if the upload unpacks past the configured limits
func IsTooLarge(err error) bool {
	return errors.Is(err, bundle.ErrBundleTooLarge)
}

// IsConflict checks if error represents a resource conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrImportAlreadyRunning) ||
		errors.Is(err, ErrPersistenceDisabled)
}

func sheetError(err error) error {
	if errors.Is(err, sheet.ErrNoSheets) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrSheetUnreadable, err)
}

// mediaError reports unknown scopes, invalid names and missing files alike
// as ErrMediaNotFound.
func mediaError(err error) error {
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, storage.ErrInvalidKey) {
		return fmt.Errorf("%w: %w", ErrMediaNotFound, err)
	}
	return err
}
