package ingest

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates the requested record does not exist or is not owned
// by the requesting user.
var ErrNotFound = errors.New("record not found")

// ErrAccountExists indicates an insert lost a race against a concurrent
// submission for the same (user, bank, masked number) identity.
var ErrAccountExists = errors.New("bank account already exists")

// ErrUnsupportedBankFormat indicates no issuer signature was recognized in
// the document. Surfaced to the caller as a validation-class error.
var ErrUnsupportedBankFormat = errors.New("unsupported bank statement format")

// ErrUnsupportedBank indicates the parser has no grammar for a bank key.
var ErrUnsupportedBank = errors.New("unsupported bank")

// ErrUploadProcessing rejects an operation that is not permitted while the
// async parse owns the upload record.
var ErrUploadProcessing = errors.New("upload is being processed")

// ErrFileTooLarge rejects an upload above the configured size limit.
var ErrFileTooLarge = errors.New("file exceeds the maximum allowed size")

// ErrUnsupportedMediaType rejects an upload whose content type is not the
// configured statement media type.
var ErrUnsupportedMediaType = errors.New("unsupported media type")

// ValidationError rejects bad input before anything is persisted.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Validationf builds a ValidationError.
func Validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a validation-class rejection, which
// also covers unsupported-format and duplicate rejections.
func IsValidation(err error) bool {
	var ve *ValidationError
	var de *DuplicateError
	return errors.As(err, &ve) || errors.As(err, &de) ||
		errors.Is(err, ErrUnsupportedBankFormat) ||
		errors.Is(err, ErrFileTooLarge) ||
		errors.Is(err, ErrUnsupportedMediaType)
}

// DuplicateReason describes which duplicate check rejected an upload.
type DuplicateReason string

const (
	// DuplicatePeriod means sample transactions from an overlapping
	// statement period already exist on the account.
	DuplicatePeriod DuplicateReason = "period_sample_match"
	// DuplicateFile means an upload with identical file name and size
	// already exists for the account.
	DuplicateFile DuplicateReason = "file_name_size_match"
)

// DuplicateError rejects an upload that duplicates prior data.
type DuplicateError struct {
	Reason DuplicateReason
	Msg    string
}

func (e *DuplicateError) Error() string { return e.Msg }
