package triage

import (
	"github.com/smartcity/governance/internal/domain"
	"github.com/smartcity/governance/pkg/utils"
)

// Score bounds
const (
	MinPriorityScore = 10
	MaxPriorityScore = 100
)

// penaltyDaysCap bounds days before the penalty multiply. Any days >= 56
// already clamps to MinPriorityScore, so capping is exact and cannot overflow.
const penaltyDaysCap = 1000

// Score converts urgency, citizen feedback (1..5) and estimated resolution
// days (>= 1) into a priority score in [MinPriorityScore, MaxPriorityScore].
//
//	base    = weight(urgency) * 25
//	bonus   = (feedback - 3) * 5
//	penalty = max(0, (days - 3) * 2)
func Score(urgency domain.Urgency, feedback, days int) (int, error) {
	weight, ok := urgency.Weight()
	if !ok {
		return 0, domain.NewValidationError("urgency", urgency, "unknown urgency level")
	}
	if feedback < 1 || feedback > 5 {
		return 0, domain.NewValidationError("feedback_score", feedback, "must be between 1 and 5")
	}
	if days < 1 {
		return 0, domain.NewValidationError("estimated_days", days, "must be at least 1")
	}

	base := weight * 25
	bonus := (feedback - domain.DefaultFeedbackScore) * 5
	penalty := max(0, (min(days, penaltyDaysCap)-3)*2)

	return utils.Clamp(base+bonus-penalty, MinPriorityScore, MaxPriorityScore), nil
}
