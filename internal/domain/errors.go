package domain

import "errors"

var (
	ErrPathTraversal    = errors.New("path escapes the serve root")
	ErrInvalidName      = errors.New("invalid file or folder name")
	ErrPathTooLong      = errors.New("path too long")
	ErrFileNotFound     = errors.New("file or folder not found")
	ErrNotAFile         = errors.New("path is not a regular file")
	ErrNotADirectory    = errors.New("path is not a directory")
	ErrPermissionDenied = errors.New("permission denied")
)
