package chat

// State is a step of the two-phase answer protocol
type State string

const (
	StateIdle          State = "idle"
	StateFirstCall     State = "first_call_in_flight"
	StateDirectAnswer  State = "direct_answer"
	StateToolExecution State = "tool_execution"
	StateSecondCall    State = "second_call_in_flight"
	StateDone          State = "done"
)
