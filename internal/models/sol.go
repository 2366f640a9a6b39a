package models

import (
	"math"
	"time"
)

// SolType distinguishes the two kinds of savings pool.
type SolType string

const (
	// SolPersonal is an individual goal: contributions accumulate toward
	// a target amount.
	SolPersonal SolType = "personal"

	// SolCollaborative is a rotating fund (tontine): members take turns
	// receiving the pooled contribution.
	SolCollaborative SolType = "collaborative"
)

// ValidSolType reports whether t is a supported sol type.
func ValidSolType(t SolType) bool {
	return t == SolPersonal || t == SolCollaborative
}

// Frequency is the contribution cadence of a sol.
type Frequency string

const (
	Weekly   Frequency = "weekly"
	Biweekly Frequency = "biweekly"
	Monthly  Frequency = "monthly"
)

// ValidFrequency reports whether f is a supported frequency.
func ValidFrequency(f Frequency) bool {
	switch f {
	case Weekly, Biweekly, Monthly:
		return true
	}
	return false
}

// SolMember is one participant in a collaborative sol.
type SolMember struct {
	Name  string
	Phone string

	// HasReceived marks that the member got the pot during the current
	// rotation. Reset for everyone when a rotation completes.
	HasReceived  bool
	ReceivedDate *time.Time

	// Position is the member's place in the rotation order, 0-based.
	Position int
}

// Sol is a savings pool.
//
// Personal sols carry a target amount; progress toward it is purely derived.
// Collaborative sols carry an ordered member list and a pointer to the
// member currently due to receive the pooled funds.
type Sol struct {
	// ID is the unique identifier for the sol (UUID format).
	ID string

	// UserID is the owning user.
	UserID string

	Name string

	Type SolType

	// Amount is the per-period contribution.
	Amount float64

	Currency Currency

	Frequency Frequency

	StartDate time.Time
	EndDate   *time.Time

	// Members is the ordered rotation list. Empty for personal sols.
	Members []SolMember

	// CurrentRecipientIndex points at the member due to receive the pot.
	CurrentRecipientIndex int

	// NextPaymentDate is the next scheduled contribution date. It
	// advances from the previous scheduled date, not from "now", so a
	// late contribution does not drift the schedule.
	NextPaymentDate time.Time

	// TotalContributions is the running sum of recorded contributions.
	TotalContributions float64

	// TargetAmount is the goal for personal sols. Never mutated by a
	// contribution; contributing past it simply over-accumulates.
	TargetAmount float64

	IsActive bool

	Description string
	Icon        string
	Color       string

	// CreatedAt and UpdatedAt are Unix timestamps.
	CreatedAt int64
	UpdatedAt int64
}

// NextPaymentAfter returns the payment date one period after current:
// weekly +7d, biweekly +14d, monthly +1 calendar month.
func (s *Sol) NextPaymentAfter(current time.Time) time.Time {
	switch s.Frequency {
	case Weekly:
		return current.AddDate(0, 0, 7)
	case Biweekly:
		return current.AddDate(0, 0, 14)
	case Monthly:
		return current.AddDate(0, 1, 0)
	default:
		return current.AddDate(0, 0, 7)
	}
}

// CurrentRecipient returns the member due to receive the pot, or nil for a
// personal sol or an out-of-range index.
func (s *Sol) CurrentRecipient() *SolMember {
	if s.Type != SolCollaborative {
		return nil
	}
	if s.CurrentRecipientIndex < 0 || s.CurrentRecipientIndex >= len(s.Members) {
		return nil
	}
	return &s.Members[s.CurrentRecipientIndex]
}

// TotalCycles returns the number of payouts in a full rotation.
func (s *Sol) TotalCycles() int {
	if s.Type != SolCollaborative {
		return 0
	}
	return len(s.Members)
}

// CycleAmount returns the pot size for one payout: the per-period amount
// times the member count.
func (s *Sol) CycleAmount() float64 {
	if s.Type != SolCollaborative {
		return 0
	}
	return s.Amount * float64(len(s.Members))
}

// Progress returns the percentage of a personal sol's target reached,
// capped at 100 for display. Zero for collaborative sols.
func (s *Sol) Progress() int {
	if s.Type != SolPersonal || s.TargetAmount <= 0 {
		return 0
	}
	pct := int(math.Round(s.TotalContributions / s.TargetAmount * 100))
	return min(100, pct)
}

// AdvanceRecipient marks the current member as having received the pot at
// now and moves the pointer to the next member. When the pointer wraps to
// zero a new rotation begins and every member's received state is reset.
// This moves no money.
func (s *Sol) AdvanceRecipient(now time.Time) {
	if len(s.Members) == 0 {
		return
	}

	received := now
	s.Members[s.CurrentRecipientIndex].HasReceived = true
	s.Members[s.CurrentRecipientIndex].ReceivedDate = &received

	s.CurrentRecipientIndex = (s.CurrentRecipientIndex + 1) % len(s.Members)

	// Season reset: a full rotation completed.
	if s.CurrentRecipientIndex == 0 {
		for i := range s.Members {
			s.Members[i].HasReceived = false
			s.Members[i].ReceivedDate = nil
		}
	}
}
