package model

import (
	"errors"
	"fmt"
)

// InsufficientStockError is returned when the candidate batches for a key hold
// less than requested. Nothing has been written when it is returned.
type InsufficientStockError struct {
	Type        string
	VariantType string
	Color       string
	Size        string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s/%s/%s/%s: requested %d, available %d",
		e.Type, e.VariantType, e.Color, e.Size, e.Requested, e.Available)
}

// Shortfall is how many units are missing.
func (e *InsufficientStockError) Shortfall() int {
	return e.Requested - e.Available
}

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

type IndexOutOfRangeError struct {
	Level  Level
	Gender Gender
	Index  int
	Length int
}

func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("index %d out of range for %s/%s (length %d)", e.Index, e.Level, e.Gender, e.Length)
}

type NotFoundError struct {
	Collection string
	ID         string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Collection, e.ID)
}

// ErrBusy reports a contended resource. Callers may retry.
var ErrBusy = errors.New("resource busy")
