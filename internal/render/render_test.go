package render

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/radar-fun/most-called-bot/internal/model"
)

var testTime = time.Date(2025, 6, 1, 14, 30, 0, 0, time.UTC)

func testTemplate() Template {
	return Template{
		Header: "Top {count} tokens ({timeframe}) - {timestamp} UTC\n\n",
		Medals: []string{"🥇", "🥈", "🥉"},
		Item:   "{medal} ${symbol}\nCA: {address}\nCalls: {calls}\n\n",
		Footer: "#tokens",
	}
}

func testBatch() []model.TokenRecord {
	return []model.TokenRecord{
		{Symbol: "WIF", Name: "Dogwifhat", Address: "wifaddr", CallCount: 42, WinRate: 80},
		{Symbol: "BONK", Address: "bonkaddr", CallCount: 17, WinRate: 60},
	}
}

func TestRenderExpandsPlaceholders(t *testing.T) {
	r := New(280, ModeEnforce)
	got, err := r.Render(testTemplate(), testBatch(), Context{Count: 2, Timeframe: "1h", Timestamp: testTime})
	if err != nil {
		t.Fatal(err)
	}

	want := "Top 2 tokens (1h) - 2025-06-01 14:30 UTC\n\n" +
		"🥇 $WIF\nCA: wifaddr\nCalls: 42\n\n" +
		"🥈 $BONK\nCA: bonkaddr\nCalls: 17\n\n" +
		"#tokens"
	if got != want {
		t.Errorf("rendered text mismatch:\ngot:  %q\nwant: %q", got, want)
	}
}

func TestRenderIdempotent(t *testing.T) {
	r := New(280, ModeEnforce)
	rc := Context{Count: 2, Timeframe: "1h", Timestamp: testTime}
	a, err := r.Render(testTemplate(), testBatch(), rc)
	if err != nil {
		t.Fatal(err)
	}
	b, err := r.Render(testTemplate(), testBatch(), rc)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("rendering the same inputs twice produced different text")
	}
}

func TestRenderCapsItemsAtMedalCount(t *testing.T) {
	tmpl := testTemplate()
	tmpl.Medals = []string{"🥇"}

	r := New(280, ModeEnforce)
	got, err := r.Render(tmpl, testBatch(), Context{Count: 2, Timeframe: "1h", Timestamp: testTime})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(got, "BONK") {
		t.Errorf("unmedaled item rendered: %q", got)
	}
	if !strings.Contains(got, "WIF") {
		t.Errorf("medaled item missing: %q", got)
	}
}

func TestRenderTooLongEnforced(t *testing.T) {
	r := New(40, ModeEnforce)
	_, err := r.Render(testTemplate(), testBatch(), Context{Count: 2, Timeframe: "1h", Timestamp: testTime})
	if err == nil {
		t.Fatal("expected error for over-limit render")
	}
	var re *Error
	if !errors.As(err, &re) {
		t.Fatalf("expected *render.Error, got %T: %v", err, err)
	}
	if re.Kind != TooLong {
		t.Errorf("Kind = %v, want TooLong", re.Kind)
	}
	if re.Max != 40 || re.Length <= 40 {
		t.Errorf("unexpected bounds: length=%d max=%d", re.Length, re.Max)
	}
}

func TestRenderTooLongWarnModeProceeds(t *testing.T) {
	r := New(40, ModeWarn)
	got, err := r.Render(testTemplate(), testBatch(), Context{Count: 2, Timeframe: "1h", Timestamp: testTime})
	if err != nil {
		t.Fatalf("warn mode should not fail: %v", err)
	}
	if got == "" {
		t.Error("warn mode returned empty text")
	}
}

func TestRenderLengthCountsRunes(t *testing.T) {
	tmpl := Template{Header: "日本語テスト", Medals: []string{"x"}}
	// 6 runes, well over 6 bytes.
	r := New(6, ModeEnforce)
	if _, err := r.Render(tmpl, nil, Context{}); err != nil {
		t.Errorf("6-rune text should fit a 6-rune limit: %v", err)
	}
	r = New(5, ModeEnforce)
	if _, err := r.Render(tmpl, nil, Context{}); err == nil {
		t.Error("6-rune text should exceed a 5-rune limit")
	}
}

func TestRenderEmptyBatch(t *testing.T) {
	r := New(280, ModeEnforce)
	got, err := r.Render(testTemplate(), nil, Context{Count: 0, Timeframe: "1h", Timestamp: testTime})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(got, "Top 0 tokens") || !strings.HasSuffix(got, "#tokens") {
		t.Errorf("unexpected empty-batch render: %q", got)
	}
}

func TestTemplateValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Template)
		wantErr string
	}{
		{"valid", func(t *Template) {}, ""},
		{"name placeholder allowed in item", func(t *Template) { t.Item = "{medal} {symbol} ({name})" }, ""},
		{"unknown in header", func(t *Template) { t.Header = "Top {cnt}" }, "{cnt}"},
		{"item placeholder in header", func(t *Template) { t.Header = "{medal}" }, "{medal}"},
		{"unknown in item", func(t *Template) { t.Item = "{symbol} {price}" }, "{price}"},
		{"header placeholder in footer ok", func(t *Template) { t.Footer = "as of {timestamp}" }, ""},
		{"unknown in footer", func(t *Template) { t.Footer = "{hashtag}" }, "{hashtag}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl := testTemplate()
			tt.mutate(&tmpl)
			err := tmpl.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}
