package roundtrip

import "fmt"

// Step names which half of the round trip failed
type Step string

const (
	StepElicit    Step = "elicit tool_use"
	StepCloseLoop Step = "close loop"
)

// ShapeError is a parseable response missing the block or field a step needs
type ShapeError struct {
	Step    Step
	Reason  string
	Preview string // bounded JSON preview; empty when none is shown
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("shape error (%s): %s", e.Step, e.Reason)
}
