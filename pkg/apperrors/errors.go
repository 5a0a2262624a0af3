package apperrors

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrCommentNotFound = errors.New("comment not found")
	ErrDraftNotFound   = errors.New("draft not found")
	ErrEmptyDraft      = errors.New("draft has no content")
	ErrCommentLocked   = errors.New("comment is being processed by another worker")
)
