package resolution

// Outcome is the result of one turn: *Clarification, *Final or *Failure.
type Outcome interface {
	outcome()
}

// Clarification asks the caller to choose among Options and send the
// choice back together with State.
type Clarification struct {
	Awaiting Awaiting
	Message  string
	Options  []string
	Pending  PendingResolution
	// State is Pending encoded by the orchestrator's codec.
	State string
}

// Final carries the backend's answer unchanged.
type Final struct {
	Answer       string
	DebugContext map[string]any
}

// FailureKind classifies a terminal failure.
type FailureKind int

const (
	FailureUnauthorized FailureKind = iota + 1
	FailureBackend
	FailureMalformedState
	FailureInvalidQuery
)

func (k FailureKind) String() string {
	switch k {
	case FailureUnauthorized:
		return "unauthorized"
	case FailureBackend:
		return "backend"
	case FailureMalformedState:
		return "malformed_state"
	case FailureInvalidQuery:
		return "invalid_query"
	default:
		return "unknown"
	}
}

// Failure ends a conversation. Message is safe to show to the caller.
type Failure struct {
	Kind    FailureKind
	Message string
}

func (*Clarification) outcome() {}
func (*Final) outcome()         {}
func (*Failure) outcome()       {}

// Caller-facing messages.
const (
	msgAskScope       = "For which department would you like to see the info?"
	msgAskRefinement  = "Which of these metrics are you interested in?"
	msgUnauthorized   = "Invalid authentication token"
	msgBackendFailed  = "The answer backend failed. Please ask the original question again."
	msgLookupFailed   = "Could not verify the caller. Please try again."
	msgMalformedState = "The pending state is invalid. Please ask the original question again."
	msgEmptyQuery     = "Please ask a question."
)

func rejectionMessage(answer string) string {
	return "'" + answer + "' is not a valid selection. Please choose from the list."
}
