package models

// DeltaPolarity tells the display whether a delta should read as good or bad.
type DeltaPolarity string

const (
	// DeltaNormal renders the delta in the usual colors.
	DeltaNormal DeltaPolarity = "normal"
	// DeltaInverse flips the colors, flagging a low value.
	DeltaInverse DeltaPolarity = "inverse"
)

// MetricsInput is the analysis summary handed to the formatter. Callers
// guarantee TotalDays >= ActiveDays >= 0 and 0 <= PercentActiveDays <= 100.
type MetricsInput struct {
	TotalContributions int     `json:"total_contributions"`
	ContributionRate   float64 `json:"contribution_rate"`
	ActiveDays         int     `json:"active_days"`
	TotalDays          int     `json:"total_days"`
	PercentActiveDays  float64 `json:"percent_active_days"`
	Since              string  `json:"since"`
}

// Metric is one display-ready widget.
type Metric struct {
	Label         string        `json:"label"`
	Value         string        `json:"value"`
	Delta         string        `json:"delta"`
	DeltaPolarity DeltaPolarity `json:"delta_polarity"`
}

// GrowthMetrics pairs the contribution and active-day widgets.
type GrowthMetrics struct {
	Contributions Metric `json:"contributions"`
	ActiveDays    Metric `json:"active_days"`
}
