package resumes

import "errors"

var (
	// ErrNotFound indicates no record exists for the resume id.
	ErrNotFound = errors.New("resume not found")

	// ErrDecode indicates a stored value is empty or not a resume record.
	ErrDecode = errors.New("resume decode failed")

	// ErrInvalidInput indicates a resume failed validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrBusy indicates another lifecycle operation is already in flight.
	ErrBusy = errors.New("operation in progress")

	// ErrPartialBatch indicates a bulk delete left some records behind.
	ErrPartialBatch = errors.New("failed to delete some resumes")
)

// User-visible notices stored in State.LastError.
const (
	noticeLoadFailed   = "Failed to load resumes"
	noticeDeleteFailed = "Failed to delete resume"
	noticeBatchFailed  = "Failed to delete some resumes"
	noticeSaveFailed   = "Failed to save resume"
)
