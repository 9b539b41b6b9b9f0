// Package report summarizes the JSON lines written by the batch tool.
package report

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"meterocr/pkg/ocr"
	"meterocr/process/batch"
)

// Report aggregates batch records.
type Report struct {
	Records  int
	ByTier   map[ocr.Tier]int
	Failed   int
	AvgScore float64
	// Rows are the records kept by the filter, sorted by file name.
	Rows []batch.Record
}

// Filter selects which records land in Report.Rows. Nil keeps none.
type Filter func(batch.Record) bool

// TierFilter keeps records of tier t; an empty t keeps failures.
func TierFilter(t ocr.Tier) Filter {
	return func(r batch.Record) bool {
		if t == "" {
			return r.Error != ""
		}
		return r.Error == "" && r.Tier == t
	}
}

// Build reads JSON lines from r. Blank lines are skipped; any other
// undecodable line is an error naming its line number.
func Build(r io.Reader, keep Filter) (Report, error) {
	rep := Report{ByTier: map[ocr.Tier]int{}}
	var scoreSum float64
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		if len(sc.Bytes()) == 0 {
			continue
		}
		var rec batch.Record
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			return rep, fmt.Errorf("line %d: %w", line, err)
		}
		rep.Records++
		if rec.Error != "" {
			rep.Failed++
		} else {
			rep.ByTier[rec.Tier]++
			scoreSum += rec.Score
		}
		if keep != nil && keep(rec) {
			rep.Rows = append(rep.Rows, rec)
		}
	}
	if err := sc.Err(); err != nil {
		return rep, err
	}
	if scored := rep.Records - rep.Failed; scored > 0 {
		rep.AvgScore = scoreSum / float64(scored)
	}
	sort.Slice(rep.Rows, func(i, j int) bool { return rep.Rows[i].File < rep.Rows[j].File })
	return rep, nil
}

// Print writes rep in the plain text layout used by the CLI.
func Print(w io.Writer, rep Report) {
	fmt.Fprintf(w, "Batch report:\n")
	fmt.Fprintf(w, "  records=%d failed=%d avg_score=%.2f\n", rep.Records, rep.Failed, rep.AvgScore)
	for _, t := range []ocr.Tier{ocr.TierAccept, ocr.TierPartial, ocr.TierReject} {
		fmt.Fprintf(w, "  %-7s %-6s %d\n", t, t.Status(), rep.ByTier[t])
	}
	for _, r := range rep.Rows {
		if r.Error != "" {
			fmt.Fprintf(w, "%s|%s|error=%s\n", r.File, r.Claimed, r.Error)
			continue
		}
		fmt.Fprintf(w, "%s|%s|%s|%.2f|%s\n", r.File, r.Claimed, r.Observed, r.Score, r.Tier)
	}
}
