package wizard

import "fmt"

// Step identifies where the user is in the lookup flow.
type Step int

const (
	Welcome Step = iota
	EnterID
	ViewStatus
)

// StepInfo is the label shown for a step in the progress indicator.
type StepInfo struct {
	Title       string
	Description string
}

// Steps lists the wizard steps in order.
var Steps = []StepInfo{
	Welcome:    {Title: "Welcome", Description: "Learn about the application status lookup process"},
	EnterID:    {Title: "Enter ID", Description: "Provide your submission ID"},
	ViewStatus: {Title: "View Status", Description: "See the current status of your application"},
}

func (s Step) String() string {
	switch s {
	case Welcome:
		return "welcome"
	case EnterID:
		return "enter_id"
	case ViewStatus:
		return "view_status"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// Valid reports whether s is one of the known steps.
func (s Step) Valid() bool {
	return s >= Welcome && s <= ViewStatus
}

// Progress is how far along the flow s is, from 0 to 100.
func (s Step) Progress() int {
	if !s.Valid() {
		return 0
	}
	return int(s) * 100 / (len(Steps) - 1)
}

// ParseStep converts the String form back into a Step.
func ParseStep(raw string) (Step, error) {
	for _, s := range []Step{Welcome, EnterID, ViewStatus} {
		if s.String() == raw {
			return s, nil
		}
	}
	return Welcome, fmt.Errorf("wizard: unknown step %q", raw)
}
