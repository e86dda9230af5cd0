package status

import (
	"fmt"
	"html"
	"io"
	"sync"
	"time"

	"dipwatch/internal/market"
)

// Snapshot is the outcome of the most recent run.
type Snapshot struct {
	RunID     string        `json:"runId"`
	Generated time.Time     `json:"generated"`
	Duration  time.Duration `json:"duration"`
	Exchange  string        `json:"exchange"`
	Result    market.Result `json:"result"`
	Message   string        `json:"message,omitempty"`
	Err       string        `json:"error,omitempty"`
}

func (s Snapshot) OK() bool { return s.Err == "" }

type Store struct {
	mu  sync.RWMutex
	cur Snapshot
	ok  *Snapshot // last successful run
}

func NewStore() *Store { return &Store{} }

func (s *Store) SetSnap(sn Snapshot) {
	s.mu.Lock()
	s.cur = sn
	if sn.OK() {
		cp := sn
		s.ok = &cp
	}
	s.mu.Unlock()
}

func (s *Store) Snap() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// LastSuccess returns the most recent successful run, if any.
func (s *Store) LastSuccess() (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ok == nil {
		return Snapshot{}, false
	}
	return *s.ok, true
}

const pageHead = `<!doctype html><html><head><meta charset="utf-8">
<title>Dip Scanner Status</title>
<style>
:root{--bg:#111;--fg:#eee;--muted:#aaa;--row:#151515;--grid:#2a2a2a;--down:#ff6464;--blue:#9cf}
*{box-sizing:border-box}
body{background:var(--bg);color:var(--fg);font-family:ui-monospace,Menlo,Consolas,monospace;margin:16px}
h3{margin:0 0 10px}
small{color:var(--muted)}
table{border-collapse:collapse;width:100%}
th,td{padding:8px 10px;border-bottom:1px solid var(--grid);white-space:nowrap}
th{color:var(--blue);text-align:left;font-weight:600}
tr:hover{background:var(--row)}
.num{font-variant-numeric:tabular-nums}
.err{color:var(--down)}
</style></head><body>`

// WriteHTML renders snap as a standalone page.
func WriteHTML(w io.Writer, snap Snapshot) {
	fmt.Fprint(w, pageHead)
	if snap.Generated.IsZero() {
		fmt.Fprint(w, `<h3>No run yet</h3></body></html>`)
		return
	}
	fmt.Fprintf(w, `<h3>%s <small>&nbsp;generated %s · run %s · %s · %d markets</small></h3>`,
		html.EscapeString(snap.Exchange),
		html.EscapeString(snap.Generated.Format(time.RFC3339)),
		html.EscapeString(snap.RunID),
		snap.Duration.Round(time.Millisecond),
		snap.Result.Scanned,
	)
	if !snap.OK() {
		fmt.Fprintf(w, `<p class="err">run failed: %s</p></body></html>`, html.EscapeString(snap.Err))
		return
	}
	if len(snap.Result.Candidates) == 0 {
		fmt.Fprint(w, `<p>No candidate.</p></body></html>`)
		return
	}

	fmt.Fprint(w, `<table>
<thead>
<tr>
  <th>#</th>
  <th>Market</th>
  <th class="num">Last</th>
  <th class="num">Window low</th>
  <th class="num">Above low %</th>
  <th class="num">RSI</th>
  <th class="num">Vol 24h</th>
</tr>
</thead><tbody>`)
	for i, c := range snap.Result.Candidates {
		fmt.Fprintf(w, `<tr>
<td>%d</td>
<td>%s</td>
<td class="num">%s</td>
<td class="num">%s</td>
<td class="num">%s</td>
<td class="num">%s</td>
<td class="num">%s</td>
</tr>`,
			i+1,
			html.EscapeString(c.Market),
			c.Last.StringFixed(6),
			c.WindowLow.StringFixed(6),
			c.PctAboveLow.StringFixed(2),
			c.RSI.StringFixed(1),
			market.HumanAmount(c.Volume24h),
		)
	}
	fmt.Fprint(w, `</tbody></table></body></html>`)
}
