package datetime

import "testing"

func TestParseMonth(t *testing.T) {
	tests := []struct {
		name    string
		month   string
		wantErr bool
	}{
		{"first month", "2025-01", false},
		{"last month", "2030-12", false},
		{"month out of range", "2025-13", true},
		{"day included", "2025-01-15", true},
		{"empty", "", true},
		{"wrong separator", "2025/01", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := ParseMonth(tt.month)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseMonth(%q) expected error but got none", tt.month)
				}
				if ValidateMonth(tt.month) == nil {
					t.Errorf("ValidateMonth(%q) expected error but got none", tt.month)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMonth(%q) error = %v", tt.month, err)
			}
			if got := parsed.Format(MonthLayout); got != tt.month {
				t.Errorf("ParseMonth(%q) = %s, expected %s", tt.month, got, tt.month)
			}
			if parsed.Day() != 1 {
				t.Errorf("ParseMonth(%q) day = %d, expected 1", tt.month, parsed.Day())
			}
		})
	}
}

func TestOffsetMonth(t *testing.T) {
	tests := []struct {
		name     string
		month    string
		months   int
		expected string
		wantErr  bool
	}{
		{"no offset", "2025-06", 0, "2025-06", false},
		{"within year", "2025-01", 5, "2025-06", false},
		{"across year end", "2025-11", 3, "2026-02", false},
		{"several years", "2025-01", 36, "2028-01", false},
		{"backwards", "2025-03", -4, "2024-11", false},
		{"invalid month is returned unchanged", "bad", 1, "bad", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := OffsetMonth(tt.month, tt.months)
			if (err != nil) != tt.wantErr {
				t.Fatalf("OffsetMonth() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.expected {
				t.Errorf("OffsetMonth() = %s, expected %s", got, tt.expected)
			}
		})
	}
}

func TestOffsetMonthRoundTrip(t *testing.T) {
	forward, err := OffsetMonth("2025-08", 17)
	if err != nil {
		t.Fatalf("OffsetMonth forward failed: %v", err)
	}
	back, err := OffsetMonth(forward, -17)
	if err != nil {
		t.Fatalf("OffsetMonth backward failed: %v", err)
	}
	if back != "2025-08" {
		t.Errorf("round trip = %s, expected 2025-08", back)
	}
}

func TestPeriodLabel(t *testing.T) {
	tests := []struct {
		name       string
		startMonth string
		period     int
		expected   string
		wantErr    bool
	}{
		{"ordinal first period", "", 1, "Month 1", false},
		{"ordinal later period", "", 24, "Month 24", false},
		{"calendar first period is the start month", "2025-01", 1, "2025-01", false},
		{"calendar rolls into next year", "2025-01", 13, "2026-01", false},
		{"invalid start month", "January", 2, "January", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PeriodLabel(tt.startMonth, tt.period)
			if (err != nil) != tt.wantErr {
				t.Fatalf("PeriodLabel() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.expected {
				t.Errorf("PeriodLabel() = %s, expected %s", got, tt.expected)
			}
		})
	}
}
