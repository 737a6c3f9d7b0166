package analysis

import (
	"fmt"
	"time"

	"github.com/araddon/dateparse"
)

// datedDoc is a scored document whose metadata carried a parseable date
// strictly after the cutoff epoch. Only these take part in binning.
type datedDoc struct {
	doc   scoredDoc
	date  time.Time
	score float64
}

// Bin is one fixed-width window anchored at the cutoff. Bins whose documents
// carried no sentiment scores are never materialized.
type Bin struct {
	Start time.Time
	End   time.Time
	Mean  float64
	Docs  []datedDoc
}

// Label renders the bin's inclusive date range, e.g.
// "2024-06-07 to 2024-06-20".
func (b Bin) Label() string {
	return fmt.Sprintf("%s to %s", b.Start.Format("2006-01-02"), b.End.Format("2006-01-02"))
}

// datedAfterCutoff keeps the scored documents whose metadata date parses and
// falls strictly after the cutoff. Undated, unparseable and unscored
// documents drop out of the temporal view without affecting the snippet
// selection.
func datedAfterCutoff(docs []scoredDoc, cutoff time.Time) []datedDoc {
	var out []datedDoc
	for _, sd := range docs {
		if !sd.hasScore {
			continue
		}
		raw := sd.doc.MetaString("date")
		if raw == "" {
			continue
		}
		dt, err := dateparse.ParseAny(raw)
		if err != nil {
			continue
		}
		if !dt.After(cutoff) {
			continue
		}
		out = append(out, datedDoc{doc: sd, date: dt, score: sd.score})
	}
	return out
}

// buildBins groups dated documents into binDays-wide windows counted from
// the cutoff and computes each window's mean sentiment. Windows that end up
// with no documents are skipped, so the result is a sparse, ordered list.
func buildBins(docs []datedDoc, cutoff time.Time, binDays int) []Bin {
	if len(docs) == 0 || binDays <= 0 {
		return nil
	}

	byIndex := make(map[int][]datedDoc)
	maxIndex := 0
	for _, d := range docs {
		idx := int(d.date.Sub(cutoff).Hours()/24) / binDays
		byIndex[idx] = append(byIndex[idx], d)
		if idx > maxIndex {
			maxIndex = idx
		}
	}

	width := time.Duration(binDays) * 24 * time.Hour
	var bins []Bin
	for i := 0; i <= maxIndex; i++ {
		members, ok := byIndex[i]
		if !ok {
			continue
		}
		sum := 0.0
		for _, d := range members {
			sum += d.score
		}
		start := cutoff.Add(time.Duration(i) * width)
		bins = append(bins, Bin{
			Start: start,
			End:   start.Add(width - 24*time.Hour),
			Mean:  sum / float64(len(members)),
			Docs:  members,
		})
	}
	return bins
}
