package rank

import (
	"reflect"
	"testing"

	"github.com/radar-fun/most-called-bot/internal/model"
)

func rec(symbol string, calls int, winRate float64) model.TokenRecord {
	return model.TokenRecord{Symbol: symbol, Address: "addr-" + symbol, CallCount: calls, WinRate: winRate}
}

func symbols(recs []model.TokenRecord) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Symbol
	}
	return out
}

func TestSelectSplitsPool(t *testing.T) {
	records := []model.TokenRecord{
		rec("A", 70, 80), rec("B", 60, 75), rec("C", 50, 90),
		rec("D", 40, 65), rec("E", 30, 55), rec("F", 20, 45), rec("G", 10, 35),
	}

	first, second := Select(records, 30, 5, 3, 2)
	if got, want := symbols(first), []string{"A", "B", "C"}; !reflect.DeepEqual(got, want) {
		t.Errorf("first = %v, want %v", got, want)
	}
	if got, want := symbols(second), []string{"D", "E"}; !reflect.DeepEqual(got, want) {
		t.Errorf("second = %v, want %v", got, want)
	}
}

func TestSelectDeterministic(t *testing.T) {
	records := []model.TokenRecord{
		rec("A", 10, 50), rec("B", 30, 50), rec("C", 20, 50),
	}
	f1, s1 := Select(records, 0, 3, 2, 1)
	f2, s2 := Select(records, 0, 3, 2, 1)
	if !reflect.DeepEqual(f1, f2) || !reflect.DeepEqual(s1, s2) {
		t.Error("repeated Select calls produced different output")
	}
}

func TestSelectFiltersBelowThreshold(t *testing.T) {
	records := []model.TokenRecord{
		rec("A", 50, 29.9), rec("B", 40, 30), rec("C", 30, 80), rec("D", 20, 10),
	}
	first, second := Select(records, 30, 5, 3, 2)
	for _, r := range append(append([]model.TokenRecord{}, first...), second...) {
		if r.WinRate < 30 {
			t.Errorf("record %s with win rate %v below threshold survived", r.Symbol, r.WinRate)
		}
	}
	if got, want := symbols(first), []string{"B", "C"}; !reflect.DeepEqual(got, want) {
		t.Errorf("first = %v, want %v", got, want)
	}
	if len(second) != 0 {
		t.Errorf("second = %v, want empty", symbols(second))
	}
}

func TestSelectResortsUnsortedInput(t *testing.T) {
	// Upstream promises call-count order but is not trusted.
	records := []model.TokenRecord{
		rec("low", 5, 50), rec("high", 100, 50), rec("mid", 40, 50),
	}
	first, _ := Select(records, 0, 3, 3, 0)
	if got, want := symbols(first), []string{"high", "mid", "low"}; !reflect.DeepEqual(got, want) {
		t.Errorf("first = %v, want %v", got, want)
	}
}

func TestSelectTiesKeepSourceOrder(t *testing.T) {
	records := []model.TokenRecord{
		rec("first", 50, 50), rec("second", 50, 50), rec("third", 50, 50),
	}
	first, _ := Select(records, 0, 3, 3, 0)
	if got, want := symbols(first), []string{"first", "second", "third"}; !reflect.DeepEqual(got, want) {
		t.Errorf("stable sort broke tie order: %v, want %v", got, want)
	}
}

func TestSelectBatchSizeBounds(t *testing.T) {
	tests := []struct {
		name                string
		count               int
		topN, firstN, secN  int
		wantFirst, wantSec  int
	}{
		{"plenty", 10, 5, 3, 2, 3, 2},
		{"pool smaller than first", 2, 5, 3, 2, 2, 0},
		{"pool covers first only", 3, 5, 3, 2, 3, 0},
		{"pool partially covers second", 4, 5, 3, 2, 3, 1},
		{"empty", 0, 5, 3, 2, 0, 0},
		{"topN truncates", 10, 4, 3, 2, 3, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var records []model.TokenRecord
			for i := 0; i < tt.count; i++ {
				records = append(records, rec(string(rune('a'+i)), 100-i, 50))
			}
			first, second := Select(records, 0, tt.topN, tt.firstN, tt.secN)
			if len(first) != tt.wantFirst {
				t.Errorf("len(first) = %d, want %d", len(first), tt.wantFirst)
			}
			if len(second) != tt.wantSec {
				t.Errorf("len(second) = %d, want %d", len(second), tt.wantSec)
			}
			if len(first)+len(second) > tt.topN {
				t.Errorf("first+second = %d exceeds topN %d", len(first)+len(second), tt.topN)
			}
		})
	}
}

func TestSelectDoesNotMutateInput(t *testing.T) {
	records := []model.TokenRecord{
		rec("low", 5, 50), rec("high", 100, 50),
	}
	Select(records, 0, 2, 2, 0)
	if records[0].Symbol != "low" || records[1].Symbol != "high" {
		t.Error("Select reordered the caller's slice")
	}
}
