package models

// Transaction categories. The sets below are the known values used for
// aggregation and budget matching; a transaction may carry any free-form
// category string, but budgets can only be opened against a known expense
// category.

// CategorySol is the expense category stamped on sol contributions.
const CategorySol = "sol"

// CategoryBudgetAllocation and CategoryBudgetReturn tag the one-legged
// transfer entries that move money between a real account and a budget
// envelope.
const (
	CategoryBudgetAllocation = "budget_allocation"
	CategoryBudgetReturn     = "budget_return"
)

var expenseCategories = []string{
	"nourriture",
	"transport",
	"abonnements",
	"personnel",
	"loisirs",
	"famille",
	"travail",
	"sante",
	"communication",
	"loyer",
	"paris_sportifs",
	CategorySol,
	"investissement",
	"remboursement_dette",
	"pret_accorde",
	"autre",
}

var incomeCategories = []string{
	"salaire",
	"freelance",
	"famille",
	"paris_sportifs",
	"cadeaux",
	"remboursement_recu",
	"vente_investissement",
	"pot_sol",
	"autre",
}

// ExpenseCategories returns the known expense categories.
func ExpenseCategories() []string {
	out := make([]string, len(expenseCategories))
	copy(out, expenseCategories)
	return out
}

// IncomeCategories returns the known income categories.
func IncomeCategories() []string {
	out := make([]string, len(incomeCategories))
	copy(out, incomeCategories)
	return out
}

// IsKnownExpenseCategory reports whether c is one of the known expense
// categories. Budget matching is restricted to these values.
func IsKnownExpenseCategory(c string) bool {
	for _, k := range expenseCategories {
		if c == k {
			return true
		}
	}
	return false
}

// IsKnownIncomeCategory reports whether c is one of the known income
// categories.
func IsKnownIncomeCategory(c string) bool {
	for _, k := range incomeCategories {
		if c == k {
			return true
		}
	}
	return false
}
