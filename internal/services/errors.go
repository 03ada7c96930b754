package services

import "errors"

var (
	ErrNotFound     = errors.New("record not found")
	ErrDuplicate    = errors.New("a record with the same unique value already exists")
	ErrInvalidImage = errors.New("uploaded file is not a supported image")
	ErrForbidden    = errors.New("permission denied")
)
