package core

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/limelight-ai/limelight/internal/agent/telemetry"
	"github.com/limelight-ai/limelight/provider"
)

// Classifier resolves the participant set and the optimized query for a
// session. It runs exactly once per session, on the coordinator's first
// entry.
type Classifier struct {
	provider  provider.Provider
	logger    *log.Logger
	telemetry *telemetry.Telemetry
}

func NewClassifier(p provider.Provider, logger *log.Logger, tele *telemetry.Telemetry) *Classifier {
	return &Classifier{provider: p, logger: logger, telemetry: tele}
}

// Classify fills sess.Participants and sess.OptQuery. Classification failure
// is fatal to the session: there is no safe default agent set. Optimization
// failure falls back to the verbatim raw query.
func (c *Classifier) Classify(ctx context.Context, sess *QuerySession) error {
	start := time.Now()
	cls, err := c.provider.ClassifyParticipants(ctx, sess.RawQuery)
	c.telemetry.RecordLLM("classify", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("participant classification: %w", err)
	}

	seen := make(map[AgentType]bool)
	var participants []AgentType
	for _, name := range cls.Agents {
		t, ok := ParseAgentType(strings.TrimSpace(name))
		if !ok {
			c.logger.Printf("classifier picked unknown agent %q, ignoring", name)
			continue
		}
		if seen[t] {
			continue
		}
		seen[t] = true
		participants = append(participants, t)
	}
	sess.Participants = participants
	c.logger.Printf("session %s: participants %v", sess.ID, participants)

	start = time.Now()
	opt, err := c.provider.OptimizeQuery(ctx, sess.RawQuery, sess.History)
	c.telemetry.RecordLLM("optimize", time.Since(start), err)
	if err != nil || strings.TrimSpace(opt) == "" {
		// Verbatim query is a safe fallback for similarity search.
		c.logger.Printf("session %s: query rewrite failed (%v), using raw query", sess.ID, err)
		opt = sess.RawQuery
	}
	sess.OptQuery = opt
	return nil
}
