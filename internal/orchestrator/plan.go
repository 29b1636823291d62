package orchestrator

import "fmt"

// StepKind names one stage of a virtual user's sequence.
type StepKind string

const (
	StepApplyIgnoreList StepKind = "apply-ignore-list"
	StepEntry           StepKind = "entry"
	StepTraverse        StepKind = "traverse"
	StepReset           StepKind = "reset"
)

// Step is one entry of a user's ordered plan. Round is 1-based and zero for
// the ignore list step.
type Step struct {
	Kind  StepKind
	Round int
}

func (s Step) String() string {
	if s.Round == 0 {
		return string(s.Kind)
	}
	return fmt.Sprintf("%s#%d", s.Kind, s.Round)
}

// Plan builds the step list for a user with the given round count: the
// ignore list first, then entry and traverse for every round, each round
// followed by a reset when there is more than one. Fewer than one round is
// treated as one.
func Plan(rounds int) []Step {
	if rounds < 1 {
		rounds = 1
	}
	resets := rounds > 1

	steps := make([]Step, 0, 1+rounds*3)
	steps = append(steps, Step{Kind: StepApplyIgnoreList})
	for r := 1; r <= rounds; r++ {
		steps = append(steps, Step{Kind: StepEntry, Round: r}, Step{Kind: StepTraverse, Round: r})
		if resets {
			steps = append(steps, Step{Kind: StepReset, Round: r})
		}
	}
	return steps
}
