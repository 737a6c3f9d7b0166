package server

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/net/websocket"

	"github.com/limelight-ai/limelight/internal/agent/core"
	"github.com/limelight-ai/limelight/internal/analysis"
	"github.com/limelight-ai/limelight/internal/store"
	"github.com/limelight-ai/limelight/provider"
	"github.com/limelight-ai/limelight/session"
)

// ModeCache asks for the rolling query history to be used as rewrite
// context; any other mode runs the query standalone.
const ModeCache = "cache"

// WSHandler serves the interactive channel: one websocket per user, one
// full pipeline run per inbound frame.
type WSHandler struct {
	Coordinator *core.Coordinator
	Analyzer    *analysis.Analyzer
	Provider    provider.Provider
	Sessions    session.Store
	SessionTTL  time.Duration
	Archive     *store.Store
	Logger      *log.Logger
}

// frameWriter is the outbound side of one connection.
type frameWriter interface {
	Send(v interface{}) error
}

type wsWriter struct {
	conn *websocket.Conn
}

func (w wsWriter) Send(v interface{}) error { return websocket.JSON.Send(w.conn, v) }

func (h *WSHandler) Serve(c echo.Context) error {
	userID := c.Param("user_id")
	websocket.Handler(func(ws *websocket.Conn) {
		defer ws.Close()
		h.Logger.Printf("user %s connected", userID)
		ctx := c.Request().Context()
		for {
			var raw string
			if err := websocket.Message.Receive(ws, &raw); err != nil {
				h.Logger.Printf("user %s disconnected: %v", userID, err)
				return
			}
			h.handleFrame(ctx, wsWriter{ws}, userID, raw)
		}
	}).ServeHTTP(c.Response(), c.Request())
	return nil
}

func (h *WSHandler) handleFrame(ctx context.Context, w frameWriter, userID, raw string) {
	var msg QueryMessage
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		// Bare-text frames are accepted as standalone queries.
		msg = QueryMessage{Mode: "no_cache", Query: raw}
	}
	query := strings.TrimSpace(msg.Query)
	if query == "" {
		return
	}
	h.Logger.Printf("user %s: mode=%s query=%q", userID, msg.Mode, query)

	history := h.recordQuery(userID, query, msg.Mode)

	qsess := core.NewQuerySession(query, history)
	returns, err := h.Coordinator.Run(ctx, qsess)
	if err != nil {
		h.Logger.Printf("user %s: session failed: %v", userID, err)
		h.send(w, ErrorResponse{Error: err.Error()})
		return
	}
	docs := core.Aggregate(returns)

	res, err := h.Analyzer.Analyze(ctx, query, docs)
	if err != nil {
		h.Logger.Printf("user %s: analysis failed: %v", userID, err)
		h.send(w, ErrorResponse{Error: err.Error()})
		return
	}

	var narrative, recommendation string
	if res.Summary != analysis.NoDataSummary {
		n, err := h.Provider.Narrate(ctx, query, res.Summary)
		if err != nil {
			// The summary alone is still worth sending.
			h.Logger.Printf("user %s: narrative stage failed: %v", userID, err)
		} else {
			narrative, recommendation = n.Narrative, n.Recommendation
		}
	}

	payloads := make([]AgentPayload, 0, len(returns))
	for _, r := range returns {
		p := AgentPayload{Agent: string(r.Agent), Docs: r.Docs}
		if r.Err != nil {
			p.Error = r.Err.Error()
		}
		payloads = append(payloads, p)
	}

	resp := QueryResponse{
		Summary:   res.Summary,
		Narrative: narrative + "\n" + recommendation,
		Responses: payloads,
	}
	h.archive(ctx, userID, query, res.Prompt, history, resp)
	h.send(w, resp)
}

// recordQuery appends the query to the user's rolling history and returns
// the preceding queries when cache mode asked for them.
func (h *WSHandler) recordQuery(userID, query, mode string) []string {
	sess, err := h.Sessions.EnsureSession(userID, h.SessionTTL)
	if err != nil {
		h.Logger.Printf("user %s: session store: %v", userID, err)
		return nil
	}
	if err := sess.AddQuery(query); err != nil {
		h.Logger.Printf("user %s: recording query: %v", userID, err)
	}
	if mode != ModeCache {
		return nil
	}
	recent := sess.RecentQueries()
	if len(recent) > 0 {
		recent = recent[:len(recent)-1] // exclude the query just added
	}
	return recent
}

// archive persists the exchange when the archive is configured, with the
// rewrite history as the recorded context. Failures are logged only.
func (h *WSHandler) archive(ctx context.Context, userID, query, prompt string, history []string, resp QueryResponse) {
	if h.Archive == nil {
		return
	}
	data, err := json.Marshal(resp)
	if err != nil {
		h.Logger.Printf("[DB LOGGING ERROR] %v", err)
		return
	}
	err = h.Archive.SavePromptLog(ctx, store.PromptLog{
		SessionID: userID,
		UserQuery: query,
		Prompt:    prompt,
		Response:  string(data),
		Context:   strings.Join(history, "\n"),
	})
	if err != nil {
		h.Logger.Printf("[DB LOGGING ERROR] %v", err)
	}
}

func (h *WSHandler) send(w frameWriter, v interface{}) {
	if err := w.Send(v); err != nil {
		h.Logger.Printf("send failed: %v", err)
	}
}
