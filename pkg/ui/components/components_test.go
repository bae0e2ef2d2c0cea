package components

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestOpportunitiesComponent_Add(t *testing.T) {
	tests := []struct {
		name    string
		maxRows int
		profits []string
		want    []string
	}{
		{name: "sorted_best_first", maxRows: 10, profits: []string{"0.5", "2", "1"}, want: []string{"2", "1", "0.5"}},
		{name: "ties_keep_arrival", maxRows: 10, profits: []string{"1", "1", "3"}, want: []string{"3", "1", "1"}},
		{name: "cap_drops_lowest", maxRows: 2, profits: []string{"1", "3", "2"}, want: []string{"3", "2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := NewOpportunitiesComponent(tt.maxRows, 5)
			for i, p := range tt.profits {
				o.Add(OpportunityRow{Scan: i, Profit: decimal.RequireFromString(p)})
			}
			rows := o.Rows()
			if len(rows) != len(tt.want) {
				t.Fatalf("expected %d rows, got %d", len(tt.want), len(rows))
			}
			for i, w := range tt.want {
				if !rows[i].Profit.Equal(decimal.RequireFromString(w)) {
					t.Errorf("row %d: expected %s, got %s", i, w, rows[i].Profit)
				}
			}
		})
	}

	o := NewOpportunitiesComponent(10, 5)
	o.Add(OpportunityRow{Scan: 1, Profit: decimal.NewFromInt(1)})
	o.Add(OpportunityRow{Scan: 2, Profit: decimal.NewFromInt(1)})
	if o.Rows()[0].Scan != 1 {
		t.Errorf("expected first arrival to stay first on ties")
	}
}

func TestOpportunitiesComponent_Scroll(t *testing.T) {
	o := NewOpportunitiesComponent(10, 2)
	for i := range 4 {
		o.Add(OpportunityRow{Buy: "X", Profit: decimal.NewFromInt(int64(10 - i))})
	}

	o.ScrollUp()
	if o.offset != 0 {
		t.Errorf("scroll up at top should stay at 0")
	}
	for range 5 {
		o.ScrollDown()
	}
	if o.offset != 2 {
		t.Errorf("expected offset clamped at 2, got %d", o.offset)
	}
	if !strings.Contains(o.View(), "3-4 of 4") {
		t.Errorf("expected pager, got %q", o.View())
	}

	o.Clear()
	if o.Len() != 0 || o.offset != 0 {
		t.Error("expected clear to reset rows and offset")
	}
	if !strings.Contains(o.View(), "No opportunities") {
		t.Error("expected empty placeholder")
	}
}

func TestTraceComponent(t *testing.T) {
	tc := NewTraceComponent(2)
	if !strings.Contains(tc.View(), "Waiting") {
		t.Error("expected empty placeholder")
	}

	tc.Add(TraceLine{Text: "Processing: A, B, C"})
	tc.Add(TraceLine{Text: "Processing: A, B, D"})
	tc.Add(TraceLine{Text: "Error processing pairs A, B, D: boom", Error: true})

	lines := tc.Lines()
	if len(lines) != 2 || lines[0].Text != "Processing: A, B, D" || !lines[1].Error {
		t.Errorf("unexpected lines %+v", lines)
	}
	if !strings.Contains(tc.View(), "boom") {
		t.Error("expected latest line in view")
	}

	tc.Clear()
	if len(tc.Lines()) != 0 {
		t.Error("expected clear")
	}
}

func TestStats(t *testing.T) {
	tests := []struct {
		name  string
		stats Stats
		rate  float64
		best  string
	}{
		{name: "no_elapsed", stats: Stats{Processed: 10}, rate: 0, best: "Best: -"},
		{
			name:  "with_opportunities",
			stats: Stats{Processed: 10, Elapsed: 2 * time.Second, Opportunities: 1, BestProfit: decimal.RequireFromString("1.5")},
			rate:  5,
			best:  "1.50 %",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.stats.Rate(); got != tt.rate {
				t.Errorf("expected rate %v, got %v", tt.rate, got)
			}
			s := NewStatsComponent()
			s.Update(tt.stats)
			if !strings.Contains(s.View(), tt.best) {
				t.Errorf("expected %q in %q", tt.best, s.View())
			}
		})
	}
}

func TestStatusComponent_View(t *testing.T) {
	tests := []struct {
		name     string
		status   ScanStatus
		contains []string
		excludes []string
	}{
		{name: "idle", status: ScanStatus{State: StateIdle}, contains: []string{"idle"}, excludes: []string{"*"}},
		{
			name:     "scanning_shows_indicator",
			status:   ScanStatus{State: StateScanning, ScanID: "0123456789", Elapsed: 3 * time.Second},
			contains: []string{"* scanning", "scan 01234567", "elapsed 3s"},
		},
		{name: "done_hides_indicator", status: ScanStatus{State: StateDone}, contains: []string{"done"}, excludes: []string{"*"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStatusComponent()
			s.Update(tt.status)
			view := s.View("*")
			for _, want := range tt.contains {
				if !strings.Contains(view, want) {
					t.Errorf("expected %q in %q", want, view)
				}
			}
			for _, unwanted := range tt.excludes {
				if strings.Contains(view, unwanted) {
					t.Errorf("unexpected %q in %q", unwanted, view)
				}
			}
		})
	}
}
