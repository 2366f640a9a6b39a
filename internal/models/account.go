package models

// Currency is an ISO-style currency code. Rise supports Haitian gourdes and
// US dollars; an account's currency is fixed after creation in practice.
type Currency string

const (
	HTG Currency = "HTG"
	USD Currency = "USD"
)

// ValidCurrency reports whether c is a supported currency code.
func ValidCurrency(c Currency) bool {
	return c == HTG || c == USD
}

// AccountType classifies where the money physically lives.
type AccountType string

const (
	AccountBank        AccountType = "bank"
	AccountMobileMoney AccountType = "mobile_money"
	AccountCash        AccountType = "cash"
)

// ValidAccountType reports whether t is a supported account type.
func ValidAccountType(t AccountType) bool {
	switch t {
	case AccountBank, AccountMobileMoney, AccountCash:
		return true
	}
	return false
}

// MobileProvider identifies a mobile-money operator.
type MobileProvider string

const (
	ProviderMonCash MobileProvider = "moncash"
	ProviderNatCash MobileProvider = "natcash"
	ProviderOther   MobileProvider = "other"
)

// Account represents a monetary account owned by a user.
//
// Balance is the unit of truth for "how much money exists where": it is
// always the initial balance plus the sum of all committed journal effects
// attributed to the account, and it is never mutated outside an atomic
// operation.
type Account struct {
	// ID is the unique identifier for the account (UUID format).
	ID string

	// UserID is the owning user. All lookups are scoped by it.
	UserID string

	// Name is the display name (e.g. "Sogebank courant", "MonCash").
	Name string

	// Type says where the money lives: bank, mobile_money or cash.
	Type AccountType

	// Institution is the bank name for bank accounts (BUH, Sogebank,
	// Unibank, Capital Bank, ...). Optional.
	Institution string

	// Provider is the mobile-money operator for mobile_money accounts.
	// Empty otherwise.
	Provider MobileProvider

	// Currency of the account. Every operation touching this account
	// requires a matching currency.
	Currency Currency

	// Balance is the current balance, signed, fractional to 2 places.
	Balance float64

	// InitialBalance is the balance the account was created with.
	InitialBalance float64

	// Color and Icon are display hints chosen by the user.
	Color string
	Icon  string

	// IsActive is false once the account has been soft-deleted. The
	// balance is preserved; the row is never physically removed.
	IsActive bool

	// IncludeInTotal controls whether the account counts toward the
	// per-currency wealth totals.
	IncludeInTotal bool

	// CreatedAt and UpdatedAt are Unix timestamps.
	CreatedAt int64
	UpdatedAt int64
}
