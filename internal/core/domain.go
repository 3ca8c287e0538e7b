package core

import (
	"errors"
	"strings"
	"time"
)

const (
	StatusActive SourceStatus = "active"
	StatusPaused SourceStatus = "paused"
	StatusClosed SourceStatus = "closed"
)

const (
	OriginExternalLive    RevenueOrigin = "external-live"
	OriginLedger          RevenueOrigin = "ledger"
	OriginFallbackDefault RevenueOrigin = "fallback-default"
)

type (
	// SourceStatus is the lifecycle state of a ledger revenue source.
	// Only active sources contribute to the ledger sum.
	SourceStatus string

	// RevenueOrigin tags which precedence tier produced a reconciled figure.
	RevenueOrigin string

	Money struct {
		Cents int64
	}

	// RevenueSource is one manually tracked income stream in the ledger.
	RevenueSource struct {
		ID         int64
		OperatorID string
		Name       string
		Type       string // free-form category tag
		MRR        Money  // monthly value in minor units
		GrowthPct  int64  // signed, may be 0
		Status     SourceStatus
	}

	// RevenueSnapshot is the recorded state of one month, at most one per
	// operator per month (upsert on the month key).
	RevenueSnapshot struct {
		OperatorID string
		Month      string // "YYYY-MM"
		TotalMRR   Money
		Expenses   Money
	}

	// ReconciledRevenue is the engine's output. It is recomputed on every
	// read and never persisted, so a stale figure can only exist as an
	// explicitly tagged fallback, never as silently old "live" data.
	ReconciledRevenue struct {
		MRR       Money
		ARR       Money
		NetMRR    Money
		GrowthPct int64
		Source    RevenueOrigin
		AsOf      time.Time
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrNegativeAmount  = errors.New("amount cannot be negative")
	ErrEmptyName       = errors.New("empty source name")
	ErrEmptyOperator   = errors.New("empty operator id")
	ErrInvalidStatus   = errors.New("invalid source status")
	ErrInvalidMonthKey = errors.New("invalid month key")
	ErrInvalidInterval = errors.New("invalid billing interval")
	ErrInvalidQuantity = errors.New("invalid quantity")
)

func (s SourceStatus) Validate() error {
	switch s {
	case StatusActive, StatusPaused, StatusClosed:
		return nil
	default:
		return ErrInvalidStatus
	}
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrNegativeAmount
	}
	return nil
}

func (rs RevenueSource) Validate() error {
	if strings.TrimSpace(rs.OperatorID) == "" {
		return ErrEmptyOperator
	}
	if strings.TrimSpace(rs.Name) == "" {
		return ErrEmptyName
	}
	if len(rs.Name) > 200 {
		return errors.New("source name too long (max 200 characters)")
	}
	if err := rs.MRR.Validate(); err != nil {
		return err
	}
	return rs.Status.Validate()
}

// MonthKey formats a point in time as the snapshot month key.
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// ValidateMonthKey checks the "YYYY-MM" snapshot key format.
func ValidateMonthKey(key string) error {
	t, err := time.Parse("2006-01", key)
	if err != nil {
		return ErrInvalidMonthKey
	}
	if t.Year() < 2000 || t.Year() > 2200 {
		return ErrInvalidMonthKey
	}
	return nil
}

func (s RevenueSnapshot) Validate() error {
	if strings.TrimSpace(s.OperatorID) == "" {
		return ErrEmptyOperator
	}
	if err := ValidateMonthKey(s.Month); err != nil {
		return err
	}
	if err := s.TotalMRR.Validate(); err != nil {
		return err
	}
	return s.Expenses.Validate()
}
