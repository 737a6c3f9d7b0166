package core

import "github.com/limelight-ai/limelight/models"

// Aggregate flattens the completed-result list into one ordered document
// collection with segment tags intact. Results are processed in arrival
// order, not participant-declaration order; downstream segment partitioning
// is order-independent so this is safe.
func Aggregate(returns []AgentReturn) []models.EvidenceDocument {
	var out []models.EvidenceDocument
	for _, r := range returns {
		out = append(out, r.Docs...)
	}
	return out
}
