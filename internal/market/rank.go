package market

import (
	"sort"

	"github.com/shopspring/decimal"
)

// CompareVolume orders by descending volume with undefined volume treated as
// a synthetic minimum. Returns -1 when a ranks ahead of b, 1 when behind, 0 on tie.
func CompareVolume(a, b decimal.NullDecimal) int {
	switch {
	case !a.Valid && !b.Valid:
		return 0
	case !a.Valid:
		return 1
	case !b.Valid:
		return -1
	}
	return -a.Decimal.Cmp(b.Decimal)
}

// Universe returns up to n snapshots ordered by descending 24h volume.
// The input slice is left untouched; ties keep their listing order.
func Universe(snaps []Snapshot, n int) []Snapshot {
	out := make([]Snapshot, len(snaps))
	copy(out, snaps)
	sort.SliceStable(out, func(i, j int) bool {
		return CompareVolume(out[i].Volume24h, out[j].Volume24h) < 0
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// RankCandidates sorts by descending 24h volume, undefined volume last.
func RankCandidates(cands []Candidate) []Candidate {
	out := make([]Candidate, len(cands))
	copy(out, cands)
	sort.SliceStable(out, func(i, j int) bool {
		return CompareVolume(out[i].Volume24h, out[j].Volume24h) < 0
	})
	return out
}

// NewResult ranks the collected candidates and picks the best one.
func NewResult(cands []Candidate, scanned int) Result {
	if len(cands) == 0 {
		return Result{Candidates: []Candidate{}, Scanned: scanned}
	}
	ranked := RankCandidates(cands)
	best := ranked[0]
	return Result{Best: &best, Candidates: ranked, Scanned: scanned}
}
