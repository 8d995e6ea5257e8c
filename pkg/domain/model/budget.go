package model

// ReconcileBudget recomputes Variance as Spent - Allocated. A budget without a
// positive Total keeps its Variance untouched.
func ReconcileBudget(b Budget) Budget {
	if b.Total > 0 {
		b.Variance = b.Spent - b.Allocated
	}
	if b.Currency == "" {
		b.Currency = DefaultCurrency
	}
	return b
}

// MigrateLegacyBudget converts the scalar budget/spent fields of a pre-v3
// record into the structured budget and clears them. It reports whether the
// project was changed; running it on a migrated record is a no-op.
func MigrateLegacyBudget(p *Project) bool {
	if p.Legacy == nil {
		return false
	}

	total := p.Legacy.Budget
	spent := p.Legacy.Spent
	p.Budget = Budget{
		Total:     total,
		Allocated: total,
		Spent:     spent,
		Variance:  spent - total,
		Currency:  DefaultCurrency,
	}
	p.Legacy = nil
	return true
}
