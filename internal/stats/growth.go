// Package stats formats contribution summaries into display-ready metric widgets.
package stats

import (
	"fmt"

	"github.com/jsamuelsen11/commitquest/ui-service/internal/models"
)

const (
	// LowContributionRate is the contributions/day below which the rate is flagged.
	LowContributionRate = 1.0
	// LowActiveDaysPercent is the active-day percentage below which activity is flagged.
	LowActiveDaysPercent = 8.0

	// ActiveDaysLabel is the label of the active-day widget.
	ActiveDaysLabel = "Active Days"
)

// FormatGrowth maps an analysis summary to the contribution and active-day
// widgets. Values outside the documented ranges are formatted as given.
func FormatGrowth(in models.MetricsInput) models.GrowthMetrics {
	return models.GrowthMetrics{
		Contributions: models.Metric{
			Label:         "Total Contributions " + in.Since,
			Value:         fmt.Sprintf("%d commits", in.TotalContributions),
			Delta:         fmt.Sprintf("%.2f contributions/day", in.ContributionRate),
			DeltaPolarity: polarity(in.ContributionRate < LowContributionRate),
		},
		ActiveDays: models.Metric{
			Label:         ActiveDaysLabel,
			Value:         fmt.Sprintf("%d/%d days", in.ActiveDays, in.TotalDays),
			Delta:         fmt.Sprintf("%.1f%% days active", in.PercentActiveDays),
			DeltaPolarity: polarity(in.PercentActiveDays < LowActiveDaysPercent),
		},
	}
}

// Validate reports the summary fields that break the ranges callers are
// expected to guarantee. FormatGrowth itself accepts any input.
func Validate(in models.MetricsInput) models.ValidationErrors {
	var errs models.ValidationErrors
	if in.TotalContributions < 0 {
		errs = errs.Add("total_contributions", "must not be negative")
	}
	if in.ActiveDays < 0 {
		errs = errs.Add("active_days", "must not be negative")
	}
	if in.TotalDays < in.ActiveDays {
		errs = errs.Add("total_days", "must be at least active_days")
	}
	if in.PercentActiveDays < 0 || in.PercentActiveDays > 100 {
		errs = errs.Add("percent_active_days", "must be between 0 and 100")
	}
	return errs
}

func polarity(low bool) models.DeltaPolarity {
	if low {
		return models.DeltaInverse
	}
	return models.DeltaNormal
}
