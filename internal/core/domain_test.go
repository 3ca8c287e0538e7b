package core

import (
	"errors"
	"testing"
	"time"
)

func TestRevenueSourceValidate(t *testing.T) {
	valid := RevenueSource{
		OperatorID: "op-1",
		Name:       "SaaS subscriptions",
		Type:       "saas",
		MRR:        Money{Cents: 120000},
		GrowthPct:  5,
		Status:     StatusActive,
	}

	tests := []struct {
		name    string
		mutate  func(*RevenueSource)
		wantErr error
	}{
		{"valid source", func(rs *RevenueSource) {}, nil},
		{"zero mrr is valid", func(rs *RevenueSource) { rs.MRR.Cents = 0 }, nil},
		{"negative growth is valid", func(rs *RevenueSource) { rs.GrowthPct = -12 }, nil},
		{"missing operator", func(rs *RevenueSource) { rs.OperatorID = " " }, ErrEmptyOperator},
		{"missing name", func(rs *RevenueSource) { rs.Name = "" }, ErrEmptyName},
		{"negative mrr", func(rs *RevenueSource) { rs.MRR.Cents = -1 }, ErrNegativeAmount},
		{"unknown status", func(rs *RevenueSource) { rs.Status = "archived" }, ErrInvalidStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := valid
			tt.mutate(&rs)
			err := rs.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestMonthKey(t *testing.T) {
	got := MonthKey(time.Date(2025, 3, 17, 10, 0, 0, 0, time.UTC))
	if got != "2025-03" {
		t.Fatalf("MonthKey() = %q, want %q", got, "2025-03")
	}
	if err := ValidateMonthKey(got); err != nil {
		t.Fatalf("ValidateMonthKey(%q) = %v", got, err)
	}
}

func TestValidateMonthKeyRejectsBadKeys(t *testing.T) {
	for _, key := range []string{"", "2025", "2025-13", "03-2025", "2025-3", "1815-06"} {
		if err := ValidateMonthKey(key); !errors.Is(err, ErrInvalidMonthKey) {
			t.Errorf("ValidateMonthKey(%q) = %v, want ErrInvalidMonthKey", key, err)
		}
	}
}

func TestRevenueSnapshotValidate(t *testing.T) {
	s := RevenueSnapshot{
		OperatorID: "op-1",
		Month:      "2025-08",
		TotalMRR:   Money{Cents: 500000},
		Expenses:   Money{Cents: 120000},
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}

	s.Month = "august"
	if err := s.Validate(); !errors.Is(err, ErrInvalidMonthKey) {
		t.Fatalf("Validate() = %v, want ErrInvalidMonthKey", err)
	}
}
