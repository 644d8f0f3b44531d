package models

// Step is one stage of the linear booking wizard.
type Step string

const (
	StepRoute      Step = "route"
	StepVehicle    Step = "vehicle"
	StepDateTime   Step = "datetime"
	StepPassengers Step = "passengers"
	StepOptions    Step = "options"
	StepContact    Step = "contact"
	StepSummary    Step = "summary"
)

// Steps lists the wizard stages in order.
var Steps = []Step{
	StepRoute,
	StepVehicle,
	StepDateTime,
	StepPassengers,
	StepOptions,
	StepContact,
	StepSummary,
}

// Index returns the position of s in Steps, or -1 when unknown.
func (s Step) Index() int {
	for i, st := range Steps {
		if st == s {
			return i
		}
	}
	return -1
}

func (s Step) Valid() bool { return s.Index() >= 0 }

// ParseStep converts user input into a Step.
func ParseStep(raw string) (Step, bool) {
	s := Step(raw)
	return s, s.Valid()
}
