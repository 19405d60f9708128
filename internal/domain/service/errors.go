package service

import (
	"errors"
	"fmt"
)

// ErrInvalidInput возвращается, когда числовой аргумент вне диапазона [0,100]
var ErrInvalidInput = errors.New("invalid input")

// ValidationError указывает параметр и значение, не прошедшие проверку диапазона
type ValidationError struct {
	Field string
	Value float64
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s must be between 0 and 100, got %v", ErrInvalidInput, e.Field, e.Value)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

func validatePercent(field string, value float64) error {
	// NaN не проходит ни одно сравнение, поэтому проверка записана через отрицание
	if !(value >= 0 && value <= 100) {
		return &ValidationError{Field: field, Value: value}
	}
	return nil
}
