package models

import "fmt"

// Segment labels for evidence documents. Every document carries exactly one.
const (
	SegmentCommunity = "community"
	SegmentNews      = "news"
	SegmentMusic     = "music"
	SegmentUnknown   = "unknown"
)

// EvidenceDocument is the uniform retrieval record passed between the
// retrieval agents, the aggregator and the temporal analyzer. The JSON shape
// matches the similarity-search service response.
type EvidenceDocument struct {
	ID       string                 `json:"id,omitempty"`
	Source   string                 `json:"source"`
	Segment  string                 `json:"segment,omitempty"`
	Document string                 `json:"document"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
	Distance float64                `json:"distance"`
}

// MetaString returns a metadata value rendered as a string, or "" when the
// key is absent or nil.
func (d EvidenceDocument) MetaString(key string) string {
	if d.Metadata == nil {
		return ""
	}
	v, ok := d.Metadata[key]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}

// Title returns the document title from metadata, or "Untitled".
func (d EvidenceDocument) Title() string {
	if t := d.MetaString("title"); t != "" {
		return t
	}
	return "Untitled"
}

// Classification is the participant classifier's structured output: a short
// per-agent rationale plus the selected agent names.
type Classification struct {
	Reasoning map[string]string `json:"reasoning"`
	Agents    []string          `json:"agents"`
}

// Narrative is the terminal narrative stage's output.
type Narrative struct {
	Narrative      string
	Recommendation string
}

// Person is one notable-person record returned by the NER tool.
type Person struct {
	Name     string   `json:"name"`
	Count    int      `json:"count"`
	Examples []string `json:"examples,omitempty"`
}

// Location is one place record returned by the geolocation tool.
type Location struct {
	Location string   `json:"location"`
	Count    int      `json:"count"`
	Examples []string `json:"examples,omitempty"`
	Lat      *float64 `json:"lat,omitempty"`
	Lon      *float64 `json:"lon,omitempty"`
}
