package models

import "testing"

func TestBudgetDerivedFields(t *testing.T) {
	b := &Budget{Amount: 500, AlertThreshold: 80}

	t.Run("percentage rounds to nearest whole", func(t *testing.T) {
		tests := []struct {
			spent float64
			want  int
		}{
			{0, 0},
			{120, 24},
			{250, 50},
			{252.4, 50},
			{252.6, 51},
			{500, 100},
			{600, 120},
		}
		for _, tt := range tests {
			if got := b.Percentage(tt.spent); got != tt.want {
				t.Errorf("Percentage(%v) = %d, want %d", tt.spent, got, tt.want)
			}
		}
	})

	t.Run("percentage is zero for empty envelope", func(t *testing.T) {
		empty := &Budget{Amount: 0}
		if got := empty.Percentage(100); got != 0 {
			t.Errorf("Percentage = %d, want 0", got)
		}
	})

	t.Run("remaining floors at zero", func(t *testing.T) {
		if got := b.Remaining(120); got != 380 {
			t.Errorf("Remaining(120) = %v, want 380", got)
		}
		if got := b.Remaining(600); got != 0 {
			t.Errorf("Remaining(600) = %v, want 0", got)
		}
	})

	t.Run("alert thresholds", func(t *testing.T) {
		tests := []struct {
			spent float64
			want  AlertState
		}{
			{0, AlertOK},
			{395, AlertOK},
			{400, AlertWarning},
			{450, AlertWarning},
			{500, AlertExceeded},
			{700, AlertExceeded},
		}
		for _, tt := range tests {
			if got := b.Alert(tt.spent); got != tt.want {
				t.Errorf("Alert(%v) = %s, want %s", tt.spent, got, tt.want)
			}
		}
	})
}

func TestBudgetStatusPredicates(t *testing.T) {
	tests := []struct {
		status     BudgetStatus
		returnable bool
		completed  bool
	}{
		{BudgetDraft, false, false},
		{BudgetAllocated, true, false},
		{BudgetActive, true, false},
		{BudgetCompleted, false, true},
		{BudgetArchived, false, false},
	}
	for _, tt := range tests {
		b := &Budget{Status: tt.status}
		if got := b.Returnable(); got != tt.returnable {
			t.Errorf("%s: Returnable = %v, want %v", tt.status, got, tt.returnable)
		}
		if got := b.Completed(); got != tt.completed {
			t.Errorf("%s: Completed = %v, want %v", tt.status, got, tt.completed)
		}
	}
}
