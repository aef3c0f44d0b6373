// Package stageguard gates navigation through the fixed, ordered pipeline
// of sales stages. It shares no state with the draft engine; both merely
// answer "may the user leave/enter this screen".
package stageguard

import "fmt"

// Stage is one step of the canonical pipeline. The declaration order IS the
// pipeline order; comparisons rely on it.
type Stage int

const (
	StageLead Stage = iota
	StageQualified
	StageProposal
	StageNegotiation
	StageClosedWon
	StageClosedLost
)

var stageNames = map[Stage]string{
	StageLead:        "lead",
	StageQualified:   "qualified",
	StageProposal:    "proposal",
	StageNegotiation: "negotiation",
	StageClosedWon:   "closed_won",
	StageClosedLost:  "closed_lost",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// Valid reports whether s names a real pipeline stage.
func (s Stage) Valid() bool {
	_, ok := stageNames[s]
	return ok
}

// Before is the total order over stages.
func (s Stage) Before(other Stage) bool { return s < other }

// ParseStage maps a stored stage name back to its Stage.
func ParseStage(name string) (Stage, error) {
	for s, n := range stageNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown stage %q", name)
}

// Missing returns the stages that would be skipped by jumping from current
// to target: the slice of the canonical order strictly between them. Empty
// for backward moves and single-step advances.
func Missing(current, target Stage) []Stage {
	if target <= current+1 {
		return nil
	}
	skipped := make([]Stage, 0, int(target-current)-1)
	for s := current + 1; s < target; s++ {
		skipped = append(skipped, s)
	}
	return skipped
}

// CanAdvance reports whether moving from current to target skips nothing:
// backward moves and the immediate next stage are always allowed.
func CanAdvance(current, target Stage) bool {
	return len(Missing(current, target)) == 0
}

// Role restricts which stages a user may see and act on.
type Role string

const (
	RoleSales   Role = "sales"
	RoleManager Role = "manager"
	RoleFinance Role = "finance"
)

// roleFloor/roleCeiling bound the pipeline window visible to each role.
// Unknown roles see nothing.
var roleWindows = map[Role][2]Stage{
	RoleSales:   {StageLead, StageNegotiation},
	RoleManager: {StageLead, StageClosedLost},
	RoleFinance: {StageProposal, StageClosedLost},
}

// Visible reports whether the role may see the stage.
func Visible(role Role, s Stage) bool {
	w, ok := roleWindows[role]
	if !ok {
		return false
	}
	return s >= w[0] && s <= w[1]
}

// VisibleStages returns the role's stage window in pipeline order.
func VisibleStages(role Role) []Stage {
	w, ok := roleWindows[role]
	if !ok {
		return nil
	}
	stages := make([]Stage, 0, int(w[1]-w[0])+1)
	for s := w[0]; s <= w[1]; s++ {
		stages = append(stages, s)
	}
	return stages
}
