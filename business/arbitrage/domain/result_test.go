package domain

import "testing"

func TestTraceEntry_String(t *testing.T) {
	tests := []struct {
		name  string
		entry TraceEntry
		want  string
	}{
		{name: "processing", entry: ProcessingEntry(abc), want: "Processing: A, B, C"},
		{name: "error", entry: ErrorEntry(abc, "No price data for B"), want: "Error processing pairs A, B, C: No price data for B"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.entry.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestScanResult_JSON(t *testing.T) {
	tests := []struct {
		name   string
		result *ScanResult
		want   string
	}{
		{
			name:   "nil_slices_render_empty_arrays",
			result: &ScanResult{},
			want:   `{"opportunities":[],"logs":[]}`,
		},
		{
			name:   "fresh_result",
			result: NewScanResult(),
			want:   `{"opportunities":[],"logs":[]}`,
		},
	}

	opp, _ := Evaluate(abc, [3]float64{1.0, 2.0, 1.0})
	tests = append(tests, struct {
		name   string
		result *ScanResult
		want   string
	}{
		name: "populated",
		result: &ScanResult{
			Opportunities: []*Opportunity{opp},
			Logs:          []TraceEntry{ProcessingEntry(abc)},
		},
		want: `{"opportunities":[{"buy":"B -> C -> A","profit":"100.00 %"}],"logs":["Processing: A, B, C"]}`,
	})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := marshalJSON(tt.result)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if string(data) != tt.want {
				t.Errorf("json = %s, want %s", data, tt.want)
			}
		})
	}
}

func TestScanSummary_Completed(t *testing.T) {
	s := ScanSummary{ScanInfo: ScanInfo{Triples: 4}, Processed: 4}
	if !s.Completed() {
		t.Error("expected completed summary")
	}
	s.Processed = 3
	if s.Completed() {
		t.Error("partial scan reported as completed")
	}
}
