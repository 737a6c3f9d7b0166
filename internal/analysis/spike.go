package analysis

import (
	"fmt"
	"math"
	"strings"
)

// SpikeRecord is one bin whose mean sentiment sits strictly above the
// mean + sigma*stddev threshold over all bins, with short excerpts of the
// documents that drove it.
type SpikeRecord struct {
	Range         string
	MeanSentiment float64
	Docs          string
}

// detectSpikes flags bins whose mean sentiment exceeds mean + sigma*stddev
// of all bin means. Standard deviation is the population form, and the
// comparison is strict, so with fewer than two bins no spike is possible.
func detectSpikes(bins []Bin, sigma float64) []SpikeRecord {
	if len(bins) < 2 {
		return nil
	}

	mean := 0.0
	for _, b := range bins {
		mean += b.Mean
	}
	mean /= float64(len(bins))

	variance := 0.0
	for _, b := range bins {
		d := b.Mean - mean
		variance += d * d
	}
	std := math.Sqrt(variance / float64(len(bins)))

	threshold := mean + sigma*std

	var spikes []SpikeRecord
	for _, b := range bins {
		if b.Mean > threshold {
			spikes = append(spikes, SpikeRecord{
				Range:         b.Label(),
				MeanSentiment: b.Mean,
				Docs:          spikeExcerpts(b.Docs),
			})
		}
	}
	return spikes
}

func spikeExcerpts(docs []datedDoc) string {
	lines := make([]string, 0, len(docs))
	for i, d := range docs {
		text := d.doc.doc.Document
		if text == "" {
			text = "[no text]"
		}
		if r := []rune(text); len(r) > 300 {
			text = string(r[:300]) + "..."
		}
		lines = append(lines, fmt.Sprintf("Doc %d: %s", i+1, text))
	}
	return strings.Join(lines, "\n")
}

func renderSpikes(spikes []SpikeRecord) string {
	if len(spikes) == 0 {
		return "None detected."
	}
	lines := make([]string, 0, len(spikes))
	for _, s := range spikes {
		lines = append(lines, fmt.Sprintf("- Range: %s, Mean Sentiment: %.3f, Related Docs: %s",
			s.Range, s.MeanSentiment, s.Docs))
	}
	return strings.Join(lines, "\n")
}
