package dto

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a condition the caller is expected to recover from.
type ErrorCode string

const (
	ErrCodeInsufficientIdentityData ErrorCode = "INSUFFICIENT_IDENTITY_DATA"
	ErrCodeUnparseableDate          ErrorCode = "UNPARSEABLE_DATE"
	ErrCodeDecryptionExhausted      ErrorCode = "DECRYPTION_EXHAUSTED"
	ErrCodeDecryptionTimeout        ErrorCode = "DECRYPTION_TIMEOUT"
	ErrCodeEmptyDocument            ErrorCode = "EMPTY_DOCUMENT"
	ErrCodeNoSalaryTransactions     ErrorCode = "NO_SALARY_TRANSACTIONS_FOUND"
	ErrCodeNoIncomeData             ErrorCode = "NO_INCOME_DATA"
)

// Fallback actions suggested to the caller.
const (
	FallbackCorrectIdentity   = "CORRECT_IDENTITY"
	FallbackRequestPassword   = "REQUEST_PASSWORD"
	FallbackRetryUpload       = "RETRY_UPLOAD"
	FallbackManualUpload      = "MANUAL_UPLOAD"
	FallbackManualIncomeEntry = "MANUAL_INCOME_ENTRY"
)

// PipelineError is a recoverable-by-caller failure of the income pipeline.
// errors.Is matches any two PipelineErrors with the same Code.
type PipelineError struct {
	Code     ErrorCode
	Message  string
	Fallback string
	Err      error
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

func (e *PipelineError) Is(target error) bool {
	var t *PipelineError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// With returns a copy of e carrying a specific message and cause.
func (e *PipelineError) With(message string, cause error) *PipelineError {
	return &PipelineError{
		Code:     e.Code,
		Message:  message,
		Fallback: e.Fallback,
		Err:      cause,
	}
}

var (
	ErrInsufficientIdentityData = &PipelineError{
		Code:     ErrCodeInsufficientIdentityData,
		Message:  "name has fewer than 4 letters",
		Fallback: FallbackCorrectIdentity,
	}
	ErrUnparseableDate = &PipelineError{
		Code:     ErrCodeUnparseableDate,
		Message:  "date of birth is not DD/MM/YYYY, DD-MM-YYYY or DD.MM.YYYY",
		Fallback: FallbackCorrectIdentity,
	}
	ErrDecryptionExhausted = &PipelineError{
		Code:     ErrCodeDecryptionExhausted,
		Message:  "no password candidate opened the document",
		Fallback: FallbackRequestPassword,
	}
	ErrDecryptionTimeout = &PipelineError{
		Code:     ErrCodeDecryptionTimeout,
		Message:  "document decryption timed out",
		Fallback: FallbackRetryUpload,
	}
	ErrEmptyDocument = &PipelineError{
		Code:     ErrCodeEmptyDocument,
		Message:  "document has no extractable text",
		Fallback: FallbackManualUpload,
	}
	ErrNoSalaryTransactionsFound = &PipelineError{
		Code:     ErrCodeNoSalaryTransactions,
		Message:  "no salary credits found in statement",
		Fallback: FallbackManualIncomeEntry,
	}
	ErrNoIncomeData = &PipelineError{
		Code:     ErrCodeNoIncomeData,
		Message:  "neither bank-derived nor declared salary is available",
		Fallback: FallbackManualIncomeEntry,
	}
)
