package domain

import "errors"

var (
	ErrModNotFound          = errors.New("mod not found")
	ErrSourceNotFound       = errors.New("source not found")
	ErrAuthRequired         = errors.New("authentication required")
	ErrInvalidConfig        = errors.New("invalid configuration")
	ErrInvalidFolder        = errors.New("invalid mod folder")
	ErrNoWritePermission    = errors.New("no write permission on mod folder")
	ErrParse                = errors.New("unparseable mod file")
	ErrVersionQuery         = errors.New("version query failed")
	ErrVerificationMismatch = errors.New("downloaded file failed verification")
	ErrCancelled            = errors.New("cancelled")
	ErrIO                   = errors.New("file operation failed")
	ErrTargetCollision      = errors.New("target file already planned")
	ErrInvalidRename        = errors.New("invalid rename")
	ErrTagNotFound          = errors.New("tag not defined")
)
