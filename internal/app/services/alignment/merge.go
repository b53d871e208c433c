package alignment

import (
	"sort"
	"strconv"
	"strings"

	"github.com/dalemusser/valuesdao/internal/domain/models"
)

// RankedEntry is a roster entry annotated with the requester's alignment.
// Alignment is nil for entries absent from the results (the requester's own
// entry).
type RankedEntry struct {
	FID       string   `json:"fid"`
	Username  string   `json:"username"`
	Image     string   `json:"image"`
	Address   []string `json:"address"`
	Alignment *float64 `json:"alignment,omitempty"`
	Message   string   `json:"message,omitempty"`
}

// Merge joins the roster with alignment results by fid and sorts the roster by
// alignment descending. Entries without a result sort as 0; ties keep roster
// order.
func Merge(roster []models.RosterEntry, results []Result) []RankedEntry {
	byFID := make(map[string]Result, len(results))
	for _, r := range results {
		if _, dup := byFID[r.FID]; !dup {
			byFID[r.FID] = r
		}
	}

	out := make([]RankedEntry, 0, len(roster))
	for _, e := range roster {
		re := RankedEntry{FID: e.FID, Username: e.Username, Image: e.Image, Address: e.Address}
		if re.Address == nil {
			re.Address = []string{}
		}
		if r, ok := byFID[e.FID]; ok {
			a := r.Alignment
			re.Alignment = &a
			re.Message = r.Messages
		}
		out = append(out, re)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return alignmentOf(out[i]) > alignmentOf(out[j])
	})
	return out
}

func alignmentOf(e RankedEntry) float64 {
	if e.Alignment == nil {
		return 0
	}
	return *e.Alignment
}

// FilterByUsername keeps entries whose username contains term, ignoring case.
// An empty term returns entries unchanged.
func FilterByUsername(entries []RankedEntry, term string) []RankedEntry {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return entries
	}
	out := make([]RankedEntry, 0, len(entries))
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.Username), term) {
			out = append(out, e)
		}
	}
	return out
}

// IsPassHolder reports whether fid appears on the roster. Fids are compared
// numerically so "007" matches 7.
func IsPassHolder(roster []models.RosterEntry, fid int64) bool {
	if fid <= 0 {
		return false
	}
	for _, e := range roster {
		if n, err := strconv.ParseInt(strings.TrimSpace(e.FID), 10, 64); err == nil && n == fid {
			return true
		}
	}
	return false
}
