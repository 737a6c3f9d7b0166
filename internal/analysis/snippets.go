package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/limelight-ai/limelight/utils"
)

// pickSnippets selects the most representative documents for a segment:
// largest sentiment magnitude first, then smallest vector distance. The sort
// is stable so ties keep retrieval order.
func pickSnippets(docs []scoredDoc, max int) []scoredDoc {
	sorted := make([]scoredDoc, len(docs))
	copy(sorted, docs)
	sort.SliceStable(sorted, func(i, j int) bool {
		mi, mj := math.Abs(sorted[i].score), math.Abs(sorted[j].score)
		if mi != mj {
			return mi > mj
		}
		return sorted[i].doc.Distance < sorted[j].doc.Distance
	})
	if len(sorted) > max {
		sorted = sorted[:max]
	}
	return sorted
}

// renderSection formats one segment's snippet list for the synthesis prompt.
func renderSection(title string, items []scoredDoc) string {
	if len(items) == 0 {
		return fmt.Sprintf("### %s (0 docs)\nNone.", title)
	}
	lines := []string{fmt.Sprintf("### %s (%d docs)", title, len(items))}
	for i, sd := range items {
		snippet := strings.ReplaceAll(strings.TrimSpace(sd.doc.Document), "\n", " ")
		snippet = utils.Truncate(snippet, 250)
		lines = append(lines, fmt.Sprintf("%d. (%s) %s – %s", i+1, sd.label(), sd.doc.Title(), snippet))
	}
	return strings.Join(lines, "\n")
}

// renderToolSignals produces the token-lean tool summary: only the
// highest-count locations, person names without counts, and the raw
// sentiment score list.
func renderToolSignals(signals map[string]segmentSignals) string {
	lines := []string{"TOOL RESULTS"}
	for _, segment := range segmentOrder {
		sig, ok := signals[segment]
		if !ok {
			continue
		}
		lines = append(lines, fmt.Sprintf("\n%s tools:", titleCase(segment)))
		if len(sig.locations) > 0 {
			maxCount := 0
			for _, loc := range sig.locations {
				if loc.Count > maxCount {
					maxCount = loc.Count
				}
			}
			for _, loc := range sig.locations {
				if loc.Count == maxCount {
					lines = append(lines, fmt.Sprintf("- geolocation: %s (count: %d, ex: %v)",
						loc.Location, loc.Count, loc.Examples))
				}
			}
		}
		if len(sig.persons) > 0 {
			names := make([]string, 0, len(sig.persons))
			for _, p := range sig.persons {
				names = append(names, p.Name)
			}
			lines = append(lines, "- ner: "+strings.Join(names, ", "))
		}
		if sig.sentiments != nil {
			scores := make([]string, 0, len(sig.sentiments))
			for _, s := range sig.sentiments {
				scores = append(scores, fmt.Sprintf("%.3f", s))
			}
			lines = append(lines, "- sentiment: ["+strings.Join(scores, ", ")+"]")
		}
	}
	return strings.Join(lines, "\n")
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
