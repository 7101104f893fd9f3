package domain

// ExportRow is a single row in a trip's budget export.
// It is a flat, denormalized view: one row per planned entry and one per
// expense, with the trip fields repeated on every row. A trip without a budget
// or entries yields no rows.
//
// SharedWith holds stakeholder usernames, ordered alphabetically.
// Callers that need a joined string (e.g. CSV) should join with "|".
type ExportRow struct {
	// Trip fields, repeated on every row.
	TripID    string
	TripTitle string

	// Kind is "planned" or "expense".
	Kind        string
	Category    string
	Amount      string // decimal string, e.g. "12.50"
	Description string
	Status      string // empty for planned rows

	SharedWith []string
}

const (
	ExportKindPlanned = "planned"
	ExportKindExpense = "expense"
)
