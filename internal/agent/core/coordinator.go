package core

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/limelight-ai/limelight/internal/agent/telemetry"
)

var coordinatorTracer trace.Tracer = otel.Tracer("limelight/internal/agent/core")

// Coordinator is the re-entrant dispatch/join node. On first entry it runs
// the classifier; every entry after that dispatches not-yet-dispatched
// participants and re-evaluates the join predicate. The participant set is
// only known after classification, so the fan-out width is dynamic: each
// agent completion is itself the event that re-checks the barrier.
//
// Run owns the session and is the only goroutine that calls step, so state
// transitions are serialized even though the agents run in parallel.
type Coordinator struct {
	classifier *Classifier
	agents     map[AgentType]*RetrievalAgent
	timeout    time.Duration
	logger     *log.Logger
	telemetry  *telemetry.Telemetry
}

func NewCoordinator(classifier *Classifier, agents map[AgentType]*RetrievalAgent, timeout time.Duration, logger *log.Logger, tele *telemetry.Telemetry) *Coordinator {
	return &Coordinator{
		classifier: classifier,
		agents:     agents,
		timeout:    timeout,
		logger:     logger,
		telemetry:  tele,
	}
}

// Run drives the session to the joined state and returns the completed
// results in arrival order. The only errors it can return are a
// classification failure and context cancellation; agent failures degrade
// to empty results instead.
func (c *Coordinator) Run(ctx context.Context, sess *QuerySession) ([]AgentReturn, error) {
	ctx, span := coordinatorTracer.Start(ctx, "coordinator.run",
		trace.WithAttributes(attribute.String("session.id", sess.ID)))
	defer span.End()

	c.telemetry.RecordSession()

	// Buffered so a late agent return can never block after cancellation.
	returns := make(chan AgentReturn, len(KnownAgents))

	if err := c.step(ctx, sess, returns); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	for sess.state != StateJoined {
		select {
		case r := <-returns:
			sess.completed = append(sess.completed, r) // append-only
			if err := c.step(ctx, sess, returns); err != nil {
				// Unreachable once classification has resolved; kept for safety.
				span.RecordError(err)
				return nil, err
			}
		case <-ctx.Done():
			span.SetStatus(codes.Error, "cancelled")
			return nil, ctx.Err()
		}
	}

	span.SetAttributes(
		attribute.Int("session.participants", len(sess.Participants)),
		attribute.Int("session.completed", len(sess.completed)),
	)
	return sess.completed, nil
}

// step is the single re-entrant transition function.
func (c *Coordinator) step(ctx context.Context, sess *QuerySession, returns chan<- AgentReturn) error {
	if !sess.classified {
		if err := c.classifier.Classify(ctx, sess); err != nil {
			return err
		}
		sess.classified = true
		sess.state = StateDispatching
	}

	for _, t := range sess.Participants {
		if sess.dispatched[t] {
			// Write-once: re-entry after a sibling's completion must not
			// re-launch an already-dispatched agent.
			continue
		}
		sess.dispatched[t] = true
		go c.invoke(ctx, t, sess.OptQuery, returns)
	}

	if len(sess.completed) == len(sess.Participants) {
		sess.state = StateJoined
		c.logger.Printf("session %s: joined with %d results", sess.ID, len(sess.completed))
	} else {
		sess.state = StateAwaitingCompletions
	}
	return nil
}

// invoke runs one retrieval agent and always delivers exactly one return,
// degrading to an empty result on any failure so the join barrier stays
// satisfiable.
func (c *Coordinator) invoke(ctx context.Context, t AgentType, query string, returns chan<- AgentReturn) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("agent %s panicked: %v", t, r)
			c.logger.Printf("%v", err)
			returns <- AgentReturn{Agent: t, Err: err}
		}
	}()

	agent, ok := c.agents[t]
	if !ok {
		err := fmt.Errorf("no agent registered for type %s", t)
		c.logger.Printf("%v", err)
		returns <- AgentReturn{Agent: t, Err: err}
		return
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	docs, err := agent.Retrieve(callCtx, query)
	c.telemetry.RecordAgent(string(t), time.Since(start), err)
	if err != nil {
		c.logger.Printf("[%s] retrieval failed, degrading to empty result: %v", t, err)
		returns <- AgentReturn{Agent: t, Err: err}
		return
	}
	returns <- AgentReturn{Agent: t, Docs: docs}
}
