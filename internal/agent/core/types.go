package core

import (
	"github.com/google/uuid"

	"github.com/limelight-ai/limelight/models"
)

// AgentType identifies one retrieval agent in the closed participant set.
type AgentType string

const (
	AgentCommunity AgentType = "community_engagement_agent"
	AgentNews      AgentType = "news_agent"
	AgentMusic     AgentType = "music_industry_agent"
)

// KnownAgents is the closed set the classifier may pick from, in declaration
// order.
var KnownAgents = []AgentType{AgentCommunity, AgentNews, AgentMusic}

// ParseAgentType maps a classifier-emitted name onto the closed set.
func ParseAgentType(s string) (AgentType, bool) {
	switch AgentType(s) {
	case AgentCommunity, AgentNews, AgentMusic:
		return AgentType(s), true
	}
	return "", false
}

// Segment returns the evidence-document segment label an agent stamps.
func (t AgentType) Segment() string {
	switch t {
	case AgentCommunity:
		return models.SegmentCommunity
	case AgentNews:
		return models.SegmentNews
	case AgentMusic:
		return models.SegmentMusic
	}
	return models.SegmentUnknown
}

// SessionState is the coordinator's position in its state machine.
type SessionState string

const (
	StateAwaitingClassification SessionState = "awaiting-classification"
	StateDispatching            SessionState = "dispatching"
	StateAwaitingCompletions    SessionState = "awaiting-completions"
	StateJoined                 SessionState = "joined"
)

// AgentReturn is one completed-result entry: exactly one is produced per
// dispatched agent, with empty Docs when the agent failed.
type AgentReturn struct {
	Agent AgentType
	Docs  []models.EvidenceDocument
	Err   error
}

// QuerySession holds the mutable state of one incoming question. It is
// mutated only by the coordinator's (serialized) step function and discarded
// when the interactive channel closes.
type QuerySession struct {
	ID           string
	RawQuery     string
	History      []string // prior queries, oldest first, bounded upstream
	OptQuery     string
	Participants []AgentType

	classified bool
	dispatched map[AgentType]bool
	completed  []AgentReturn
	state      SessionState
}

// NewQuerySession creates a session for a raw query. History carries the
// user's recent queries when cache-style context was requested, nil
// otherwise.
func NewQuerySession(rawQuery string, history []string) *QuerySession {
	return &QuerySession{
		ID:         uuid.NewString(),
		RawQuery:   rawQuery,
		History:    history,
		dispatched: make(map[AgentType]bool),
		state:      StateAwaitingClassification,
	}
}

// State returns the coordinator state the session is in.
func (s *QuerySession) State() SessionState { return s.state }

// Completed returns the completed-result list in arrival order.
func (s *QuerySession) Completed() []AgentReturn { return s.completed }

// DispatchedSet returns the agents dispatched so far, in participant order.
func (s *QuerySession) DispatchedSet() []AgentType {
	var out []AgentType
	for _, t := range s.Participants {
		if s.dispatched[t] {
			out = append(out, t)
		}
	}
	return out
}
