package progress

import (
	"bantay/domain"
)

// Figures are the derived progress percentages of a project. Overall is the
// applied milestone weight clamped to 100; the three division figures track
// in lock-step at one third of overall each. The domain does not yet
// attribute milestones to individual divisions, so applied weight is treated
// as dimension-agnostic and distributed evenly.
type Figures struct {
	Overall  float64 `json:"overall"`
	Timeline float64 `json:"timeline"`
	Budget   float64 `json:"budget"`
	Physical float64 `json:"physical"`
}

// AppliedWeight is the portion of the total milestone weight counted toward
// progress: full weight for completed milestones, weight scaled by the
// milestone's own progress for in-progress ones, nothing for pending ones.
func AppliedWeight(milestones []domain.Milestone) float64 {
	applied := float64(0)
	for _, m := range milestones {
		applied += m.Weight * AppliedFraction(m.Status, m.Progress)
	}
	return applied
}

// AppliedFraction is the share of one milestone's weight counted toward
// progress for a given status and sub-percentage.
func AppliedFraction(status domain.MilestoneStatus, progress float64) float64 {
	switch status {
	case domain.MilestoneCompleted:
		return 1
	case domain.MilestoneInProgress:
		return progress / 100
	}
	return 0
}

// Aggregate computes a project's progress figures from its milestone states.
// It is a total function over validated input and performs no I/O; callers
// are responsible for having validated the weight invariant beforehand.
func Aggregate(milestones []domain.Milestone) Figures {
	overall := clamp(AppliedWeight(milestones))
	division := clamp(overall / 3)
	return Figures{
		Overall:  overall,
		Timeline: division,
		Budget:   division,
		Physical: division,
	}
}

// AggregateSnapshots computes the figures a submission claims, from its
// milestone snapshot instead of the persisted ledger.
func AggregateSnapshots(snapshots []domain.MilestoneSnapshot) Figures {
	milestones := make([]domain.Milestone, 0, len(snapshots))
	for _, s := range snapshots {
		milestones = append(milestones, domain.Milestone{
			ID: s.MilestoneID, Weight: s.Weight, Status: s.Status, Progress: s.Progress,
		})
	}
	return Aggregate(milestones)
}

// clamp guards against floating-point overshoot when weights sum to slightly
// over 100 within tolerance.
func clamp(v float64) float64 {
	if v > 100 {
		return 100
	}
	return v
}
