package core

import (
	"context"
	"log"

	"github.com/google/uuid"

	"github.com/limelight-ai/limelight/models"
)

// Searcher is the similarity-search dependency of a retrieval agent.
type Searcher interface {
	Search(ctx context.Context, query string, collections []string, topK int) ([]models.EvidenceDocument, error)
}

// RetrievalAgent queries a fixed, domain-specific set of source collections
// and stamps the results with its segment label. Agents are stateless per
// call and mutate no shared session state; their single return value is the
// only path back into the session.
type RetrievalAgent struct {
	Type        AgentType
	Collections []string
	TopK        int

	search Searcher
	logger *log.Logger
}

func NewRetrievalAgent(t AgentType, collections []string, topK int, search Searcher, logger *log.Logger) *RetrievalAgent {
	return &RetrievalAgent{
		Type:        t,
		Collections: collections,
		TopK:        topK,
		search:      search,
		logger:      logger,
	}
}

// Retrieve runs the similarity search with the session's optimized query.
// Zero documents is a normal outcome. Every returned document carries the
// agent's segment label and an identifier, backfilled from metadata when the
// upstream result lacked one.
func (a *RetrievalAgent) Retrieve(ctx context.Context, query string) ([]models.EvidenceDocument, error) {
	docs, err := a.search.Search(ctx, query, a.Collections, a.TopK)
	if err != nil {
		return nil, err
	}
	for i := range docs {
		docs[i].Segment = a.Type.Segment()
		if docs[i].ID == "" {
			docs[i].ID = deriveID(docs[i])
		}
	}
	a.logger.Printf("[%s] retrieved %d docs", a.Type, len(docs))
	return docs, nil
}

// deriveID backfills a document identifier: metadata id, then original_id,
// then a deterministic UUID over source + text.
func deriveID(d models.EvidenceDocument) string {
	if id := d.MetaString("id"); id != "" {
		return id
	}
	if id := d.MetaString("original_id"); id != "" {
		return id
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(d.Source+"\x00"+d.Document)).String()
}
