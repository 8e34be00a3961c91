package resolution

import (
	"fmt"
	"strings"
)

// Awaiting names the clarification a conversation is paused on.
type Awaiting int

const (
	// AwaitScope waits for the caller to pick a department.
	AwaitScope Awaiting = iota + 1
	// AwaitRefinement waits for the caller to pick a metric.
	AwaitRefinement
)

const (
	wireAskDepartment = "ASK_DEPARTMENT"
	wireAskMetric     = "ASK_METRIC"
)

func (a Awaiting) String() string {
	switch a {
	case AwaitScope:
		return wireAskDepartment
	case AwaitRefinement:
		return wireAskMetric
	default:
		return fmt.Sprintf("Awaiting(%d)", int(a))
	}
}

// Valid reports whether a is one of the declared values.
func (a Awaiting) Valid() bool {
	return a == AwaitScope || a == AwaitRefinement
}

func (a Awaiting) MarshalText() ([]byte, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("unknown awaiting value %d", int(a))
	}
	return []byte(a.String()), nil
}

func (a *Awaiting) UnmarshalText(text []byte) error {
	switch string(text) {
	case wireAskDepartment:
		*a = AwaitScope
	case wireAskMetric:
		*a = AwaitRefinement
	default:
		return fmt.Errorf("unknown awaiting value %q", string(text))
	}
	return nil
}

// PendingResolution is everything needed to pick a paused conversation
// back up. The caller holds it between turns; nothing is kept server side.
type PendingResolution struct {
	OriginalQuery string   `json:"original_query"`
	Awaiting      Awaiting `json:"awaiting"`
	ValidOptions  []string `json:"valid_options"`
	// ResolvedScope is set only while awaiting a refinement.
	ResolvedScope string `json:"resolved_scope,omitempty"`
	// ConversationID ties the turns of one conversation together in logs.
	ConversationID string `json:"conversation_id,omitempty"`
	// IdentityID is the identity the state was issued to.
	IdentityID string `json:"identity_id,omitempty"`
}

// wellFormed checks the structural rules a pending state must satisfy
// before it can be resumed.
func (p PendingResolution) wellFormed() error {
	if p.OriginalQuery == "" {
		return fmt.Errorf("original_query is empty")
	}
	if !p.Awaiting.Valid() {
		return fmt.Errorf("unknown awaiting value %d", int(p.Awaiting))
	}
	if len(p.ValidOptions) == 0 {
		return fmt.Errorf("valid_options is empty")
	}
	switch p.Awaiting {
	case AwaitRefinement:
		if p.ResolvedScope == "" {
			return fmt.Errorf("%s without resolved_scope", p.Awaiting)
		}
	case AwaitScope:
		if p.ResolvedScope != "" {
			return fmt.Errorf("%s must not carry resolved_scope", p.Awaiting)
		}
	}
	return nil
}

// Validate checks a clarification answer against the options it was
// issued with. The answer is trimmed and must then equal one option
// exactly; the trimmed answer is returned on success.
func Validate(answer string, pending PendingResolution) (string, bool) {
	trimmed := strings.TrimSpace(answer)
	for _, opt := range pending.ValidOptions {
		if opt == trimmed {
			return trimmed, true
		}
	}
	return "", false
}
