// Package display formats ratings, rating changes and simulation reports
// as plain text.
package display

import (
	"fmt"

	"github.com/ramonehamilton/skillrating/internal/trueskill"
)

// FormatChange renders a signed change of a skill-like quantity together with
// the change in one-on-one score odds it implies, e.g. "+3.0 skill (+1.5%)".
// When the odds change is too extreme to represent, only the amount is shown.
func FormatChange(model *trueskill.Model, delta float64, unit string) string {
	ratio, err := model.OneOnOneScoreRatio(delta)
	if err != nil {
		return fmt.Sprintf("%+.1f %s", delta, unit)
	}
	return fmt.Sprintf("%+.1f %s (%+.1f%%)", delta, unit, (ratio-1)*100)
}

// FormatSkillChange renders a change of skill.
func FormatSkillChange(model *trueskill.Model, delta float64) string {
	return FormatChange(model, delta, "skill")
}

// FormatHiddenSkillChange renders a skill change whose exact amount is not
// revealed, only its rough order of magnitude.
func FormatHiddenSkillChange(order int) string {
	return fmt.Sprintf("+-??? skill (probably around +-%d)", order)
}

// FormatRating renders a rating with its conservative estimate.
func FormatRating(model *trueskill.Model, r trueskill.Rating) string {
	return fmt.Sprintf("%.1f ± %.1f (exposed %.1f)", r.Mu, r.Sigma, model.Expose(r))
}
