package core

// CategoryTotal is the aggregate spend for one category.
type CategoryTotal struct {
	Category Category
	Total    Money
}

// DailyTotal is the aggregate spend for one calendar date.
type DailyTotal struct {
	Date  string // YYYY-MM-DD
	Total Money
}

// MonthOverview bundles the month total with its per-day breakdown.
type MonthOverview struct {
	Year  int
	Month int // 1-12
	Total Money
	ByDay []DailyTotal
}
