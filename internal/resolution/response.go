package resolution

import "net/http"

// Response statuses on the wire.
const (
	StatusNeedsClarification = "NEEDS_CLARIFICATION"
	StatusSuccess            = "SUCCESS"
	StatusError              = "ERROR"
)

// Response is the JSON body returned for every turn, whichever transport
// carries it.
type Response struct {
	Status       string         `json:"status"`
	Type         *Awaiting      `json:"type,omitempty"`
	Message      string         `json:"message,omitempty"`
	Options      []string       `json:"options,omitempty"`
	PendingState string         `json:"pending_state,omitempty"`
	Answer       string         `json:"answer,omitempty"`
	DebugContext map[string]any `json:"debug_context,omitempty"`
}

// NewResponse converts an outcome to its wire form.
func NewResponse(out Outcome) Response {
	switch o := out.(type) {
	case *Clarification:
		awaiting := o.Awaiting
		return Response{
			Status:       StatusNeedsClarification,
			Type:         &awaiting,
			Message:      o.Message,
			Options:      o.Options,
			PendingState: o.State,
		}
	case *Final:
		return Response{Status: StatusSuccess, Answer: o.Answer, DebugContext: o.DebugContext}
	case *Failure:
		return Response{Status: StatusError, Message: o.Message}
	default:
		return Response{Status: StatusError, Message: "unexpected outcome"}
	}
}

// HTTPStatus maps an outcome to an HTTP status code.
func HTTPStatus(out Outcome) int {
	f, ok := out.(*Failure)
	if !ok {
		return http.StatusOK
	}
	switch f.Kind {
	case FailureUnauthorized:
		return http.StatusUnauthorized
	case FailureMalformedState, FailureInvalidQuery:
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}
