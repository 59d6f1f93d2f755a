package database

import "errors"

var (
	ErrInvalidTable = errors.New("invalid table name")
	ErrNotFound     = errors.New("not found")
)
