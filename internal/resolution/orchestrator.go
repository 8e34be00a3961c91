// Package resolution runs the clarification state machine: it resolves
// a query to a department and a metric, pausing to ask the caller
// whenever either is ambiguous, and calls the answer backend once both
// are known.
//
// A paused conversation lives entirely in the PendingResolution handed to
// the caller. The orchestrator keeps no per-conversation state, so a
// pending state resumed twice yields two independent results.
package resolution

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ziadkadry99/intent-agent/internal/access"
	"github.com/ziadkadry99/intent-agent/internal/answer"
	"github.com/ziadkadry99/intent-agent/internal/intent"
)

const tracerName = "github.com/ziadkadry99/intent-agent/internal/resolution"

// Orchestrator sequences the disambiguation steps. It holds only
// immutable collaborators and is safe for concurrent use.
type Orchestrator struct {
	resolver      access.Resolver
	disambiguator *intent.Disambiguator
	generator     answer.Generator
	codec         StateCodec
	revalidate    bool
	logger        *slog.Logger
	tracer        trace.Tracer
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger. The default discards.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithCodec sets the pending-state codec. The default is JSONCodec.
func WithCodec(c StateCodec) Option {
	return func(o *Orchestrator) {
		if c != nil {
			o.codec = c
		}
	}
}

// WithCredentialRevalidation makes Resume resolve the credential again
// and check it against the identity the pending state was issued to.
// Off by default.
func WithCredentialRevalidation(on bool) Option {
	return func(o *Orchestrator) { o.revalidate = on }
}

// WithTracer sets the tracer used around backend calls. The default is
// the global otel tracer.
func WithTracer(t trace.Tracer) Option {
	return func(o *Orchestrator) {
		if t != nil {
			o.tracer = t
		}
	}
}

// New creates an Orchestrator.
func New(resolver access.Resolver, d *intent.Disambiguator, g answer.Generator, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		resolver:      resolver,
		disambiguator: d,
		generator:     g,
		codec:         JSONCodec{},
		logger:        slog.New(slog.DiscardHandler),
		tracer:        otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ResumeRequest is the second and later turn of a conversation.
type ResumeRequest struct {
	Answer  string
	Pending PendingResolution
	// Credential is only consulted when re-validation is enabled.
	Credential string
}

// conversation is the part of a pending state that survives every turn.
type conversation struct {
	query      string
	id         string
	identityID string
}

// Start handles a fresh query. A blank query fails before the
// credential is looked up.
func (o *Orchestrator) Start(ctx context.Context, query, credential string) Outcome {
	out := o.start(ctx, query, credential)
	recordTurn("start", out)
	return out
}

func (o *Orchestrator) start(ctx context.Context, query, credential string) Outcome {
	if strings.TrimSpace(query) == "" {
		return &Failure{Kind: FailureInvalidQuery, Message: msgEmptyQuery}
	}

	identity, failure := o.identify(ctx, credential)
	if failure != nil {
		return failure
	}

	conv := conversation{query: query, id: uuid.NewString(), identityID: identity.ID}
	log := o.logger.With("conversation_id", conv.id, "identity", identity.ID)

	scope, err := o.disambiguator.ResolveScope(query, identity.Scopes)
	if err != nil {
		log.Error("scope rules failed", "error", err)
		return &Failure{Kind: FailureBackend, Message: msgBackendFailed}
	}
	if !scope.Resolved {
		log.Debug("scope ambiguous", "candidates", scope.Candidates)
		return o.clarify(PendingResolution{
			OriginalQuery:  query,
			Awaiting:       AwaitScope,
			ValidOptions:   scope.Candidates,
			ConversationID: conv.id,
			IdentityID:     conv.identityID,
		}, msgAskScope, "")
	}

	log.Debug("scope resolved", "scope", scope.Scope)
	return o.afterScope(ctx, conv, scope.Scope, identity.Scopes)
}

// Resume handles the answer to a clarification.
func (o *Orchestrator) Resume(ctx context.Context, req ResumeRequest) Outcome {
	out := o.resume(ctx, req, "")
	recordTurn("resume", out)
	return out
}

// ResumeToken decodes token with the orchestrator's codec and resumes.
// A rejected answer re-issues token unchanged.
func (o *Orchestrator) ResumeToken(ctx context.Context, answerText, token, credential string) Outcome {
	pending, err := o.codec.Decode(token)
	if err != nil {
		o.logger.Warn("pending state rejected", "error", err)
		out := malformed(err)
		recordTurn("resume", out)
		return out
	}
	out := o.resume(ctx, ResumeRequest{Answer: answerText, Pending: pending, Credential: credential}, token)
	recordTurn("resume", out)
	return out
}

func (o *Orchestrator) resume(ctx context.Context, req ResumeRequest, token string) Outcome {
	pending := req.Pending
	if err := pending.wellFormed(); err != nil {
		o.logger.Warn("pending state rejected", "error", err)
		return malformed(err)
	}

	log := o.logger.With("conversation_id", pending.ConversationID, "awaiting", pending.Awaiting.String())

	var identity *access.Identity
	if o.revalidate {
		var failure *Failure
		identity, failure = o.identify(ctx, req.Credential)
		if failure != nil {
			return failure
		}
		if identity.ID != pending.IdentityID {
			log.Warn("credential does not match pending state", "identity", identity.ID, "issued_to", pending.IdentityID)
			return &Failure{Kind: FailureUnauthorized, Message: msgUnauthorized}
		}
		if pending.ResolvedScope != "" && !identity.Permits(pending.ResolvedScope) {
			log.Warn("resolved scope no longer permitted", "scope", pending.ResolvedScope)
			return &Failure{Kind: FailureUnauthorized, Message: msgUnauthorized}
		}
	}

	selected, ok := Validate(req.Answer, pending)
	if !ok {
		log.Debug("selection rejected", "answer", req.Answer)
		recordRejectedSelection(pending.Awaiting)
		return o.clarify(pending, rejectionMessage(req.Answer), token)
	}

	conv := conversation{query: pending.OriginalQuery, id: pending.ConversationID, identityID: pending.IdentityID}

	switch pending.Awaiting {
	case AwaitScope:
		// Without a fresh identity the offered options stand in for the
		// permitted scopes; they were copied from them when the state was issued.
		permitted := pending.ValidOptions
		if identity != nil {
			if !identity.Permits(selected) {
				log.Warn("selected scope not permitted", "scope", selected)
				return &Failure{Kind: FailureUnauthorized, Message: msgUnauthorized}
			}
			permitted = identity.Scopes
		}
		log.Debug("scope selected", "scope", selected)
		return o.afterScope(ctx, conv, selected, permitted)
	default:
		log.Debug("refinement selected", "refinement", selected)
		return o.generate(ctx, conv, answer.Request{
			Query:      conv.query,
			Scope:      pending.ResolvedScope,
			Refinement: selected,
		})
	}
}

// afterScope runs the cross-scope check and the refinement step once a
// scope is known.
func (o *Orchestrator) afterScope(ctx context.Context, conv conversation, active string, permitted []string) Outcome {
	if intent.IsCrossScope(conv.query, active, permitted) {
		return o.generateCrossScope(ctx, conv)
	}

	ref, err := o.disambiguator.ResolveRefinement(conv.query, active)
	if err != nil {
		o.logger.Error("refinement rules failed", "conversation_id", conv.id, "error", err)
		return &Failure{Kind: FailureBackend, Message: msgBackendFailed}
	}
	if !ref.Resolved {
		return o.clarify(PendingResolution{
			OriginalQuery:  conv.query,
			Awaiting:       AwaitRefinement,
			ValidOptions:   ref.Candidates,
			ResolvedScope:  active,
			ConversationID: conv.id,
			IdentityID:     conv.identityID,
		}, msgAskRefinement, "")
	}

	return o.generate(ctx, conv, answer.Request{
		Query:      conv.query,
		Scope:      active,
		Refinement: ref.Refinement,
	})
}

// clarify builds a Clarification for pending. A non-empty token is
// reused instead of encoding pending again.
func (o *Orchestrator) clarify(pending PendingResolution, message, token string) Outcome {
	if token == "" {
		var err error
		token, err = o.codec.Encode(pending)
		if err != nil {
			o.logger.Error("encoding pending state", "conversation_id", pending.ConversationID, "error", err)
			return malformed(err)
		}
	}
	return &Clarification{
		Awaiting: pending.Awaiting,
		Message:  message,
		Options:  append([]string(nil), pending.ValidOptions...),
		Pending:  pending,
		State:    token,
	}
}

func (o *Orchestrator) generate(ctx context.Context, conv conversation, req answer.Request) Outcome {
	ctx, span := o.tracer.Start(ctx, "answer.Generator.Generate",
		trace.WithAttributes(
			attribute.String("conversation_id", conv.id),
			attribute.String("scope", req.Scope),
			attribute.String("refinement", req.Refinement),
		),
	)
	defer span.End()

	start := time.Now()
	res, err := o.generator.Generate(ctx, req)
	return o.finish(conv, span, "single", start, res, err)
}

func (o *Orchestrator) generateCrossScope(ctx context.Context, conv conversation) Outcome {
	ctx, span := o.tracer.Start(ctx, "answer.Generator.GenerateCrossScope",
		trace.WithAttributes(
			attribute.String("conversation_id", conv.id),
			attribute.String("scope", answer.CrossScopeMarker),
		),
	)
	defer span.End()

	start := time.Now()
	res, err := o.generator.GenerateCrossScope(ctx, conv.query, answer.CrossScopeMarker)
	return o.finish(conv, span, "cross", start, res, err)
}

func (o *Orchestrator) finish(conv conversation, span trace.Span, mode string, start time.Time, res *answer.Result, err error) Outcome {
	if err == nil && res == nil {
		err = errors.New("backend returned no result")
	}
	recordBackendCall(mode, time.Since(start).Seconds(), err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.logger.Error("answer backend failed", "conversation_id", conv.id, "mode", mode, "error", err)
		return &Failure{Kind: FailureBackend, Message: msgBackendFailed}
	}

	o.logger.Info("answered", "conversation_id", conv.id, "mode", mode, "sql", res.SQLQuery)
	return &Final{Answer: res.Answer, DebugContext: res.DebugContext}
}

// identify resolves credential, mapping errors to a Failure.
func (o *Orchestrator) identify(ctx context.Context, credential string) (*access.Identity, *Failure) {
	identity, err := o.resolver.Resolve(ctx, credential)
	switch {
	case errors.Is(err, access.ErrUnauthorized):
		o.logger.Info("credential rejected")
		return nil, &Failure{Kind: FailureUnauthorized, Message: msgUnauthorized}
	case err != nil:
		o.logger.Error("resolving credential", "error", err)
		return nil, &Failure{Kind: FailureBackend, Message: msgLookupFailed}
	case identity == nil || len(identity.Scopes) == 0:
		o.logger.Warn("identity has no scopes")
		return nil, &Failure{Kind: FailureUnauthorized, Message: msgUnauthorized}
	}
	return identity, nil
}

func malformed(err error) *Failure {
	return &Failure{Kind: FailureMalformedState, Message: fmt.Sprintf("%s (%v)", msgMalformedState, err)}
}
