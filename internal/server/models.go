package server

import "github.com/limelight-ai/limelight/models"

// QueryMessage is one inbound websocket frame. A bare-text frame (not JSON)
// is accepted too and treated as a no_cache query.
type QueryMessage struct {
	Mode  string `json:"mode"`
	Query string `json:"query"`
}

// AgentPayload is one retrieval agent's contribution to the response.
type AgentPayload struct {
	Agent string                    `json:"agent"`
	Docs  []models.EvidenceDocument `json:"docs"`
	Error string                    `json:"error,omitempty"`
}

// QueryResponse is the outbound websocket frame. The narrative and the
// recommendation travel joined under one key, matching the client contract.
type QueryResponse struct {
	Summary   string         `json:"summary"`
	Narrative string         `json:"narrative/recommendation"`
	Responses []AgentPayload `json:"response"`
}

// ErrorResponse is sent when a session fails before producing a summary.
type ErrorResponse struct {
	Error string `json:"error"`
}
