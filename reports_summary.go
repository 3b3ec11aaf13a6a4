package exposure

import (
	"encoding/json"
	"fmt"
)

// RiskLevel is the coarse risk profile derived from the volatile share of
// the portfolio.
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// riskLevelOf buckets the volatile share: under 30% is Low, under 70%
// Medium, High above.
func riskLevelOf(nonStablePct Percent) RiskLevel {
	switch {
	case nonStablePct < 30:
		return RiskLow
	case nonStablePct < 70:
		return RiskMedium
	default:
		return RiskHigh
	}
}

// ExposureSummary provides the at-a-glance overview of an exposure report:
// the volatile share, how many assets carry it, and the risk profile it
// implies. It is persisted beside the full analysis so other tools can
// display the headline without reloading the whole document.
type ExposureSummary struct {
	NonStablePercentage Percent   `json:"non_stable_percentage"`
	NonStableAssetCount int       `json:"non_stable_asset_count"`
	RiskLevel           RiskLevel `json:"risk_level"`
}

// NewExposureSummary derives the summary from a report.
func NewExposureSummary(r *ExposureReport) *ExposureSummary {
	return &ExposureSummary{
		NonStablePercentage: r.NonStablePercentage,
		NonStableAssetCount: r.NonStableAssetCount,
		RiskLevel:           riskLevelOf(r.NonStablePercentage),
	}
}

// String returns the one-line headline, e.g.
// "Portfolio Risk Exposure: 45.2% in 7 non-stable assets (Medium risk profile)".
func (s *ExposureSummary) String() string {
	if s == nil {
		return "No exposure data available"
	}
	return fmt.Sprintf("Portfolio Risk Exposure: %.1f%% in %d non-stable assets (%s risk profile)",
		float64(s.NonStablePercentage), s.NonStableAssetCount, s.RiskLevel)
}

// MarshalJSON emits the summary fields followed by the rendered headline,
// keeping the keys in display order.
func (s *ExposureSummary) MarshalJSON() ([]byte, error) {
	type summary ExposureSummary
	var w jsonObjectWriter
	w.EmbedFrom(summary(*s))
	w.Append("text", s.String())
	return w.MarshalJSON()
}

// UnmarshalJSON accepts the persisted object form; the derived text field
// is recomputed, not trusted.
func (s *ExposureSummary) UnmarshalJSON(data []byte) error {
	type summary ExposureSummary
	var js summary
	if err := json.Unmarshal(data, &js); err != nil {
		return fmt.Errorf("cannot parse exposure summary: %w", err)
	}
	*s = ExposureSummary(js)
	return nil
}
