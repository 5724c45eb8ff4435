package common

import "errors"

// Общие ошибки для всех репозиториев
var (
	ErrNotFound        = errors.New("entity not found")
	ErrAlreadyExists   = errors.New("entity already exists")
	ErrVersionConflict = errors.New("version conflict")
)
