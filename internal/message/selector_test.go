package message

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"wisdombot/internal/teaching"
)

type fakeRows struct {
	rows  [][]string
	err   error
	calls int
}

func (f *fakeRows) Rows(context.Context) ([][]string, error) {
	f.calls++
	return f.rows, f.err
}

type fakeGen struct {
	out     string
	err     error
	prompts []string
}

func (f *fakeGen) Generate(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.out, f.err
}

func fixedNow(t time.Time) func() time.Time { return func() time.Time { return t } }

var day = time.Date(2025, 3, 10, 7, 0, 0, 0, JST) // Monday, day 69

func TestSelectOverrideWins(t *testing.T) {
	t.Parallel()
	rows := &fakeRows{rows: [][]string{{"h", "h"}, {"毎週", "weekly"}}}
	gen := &fakeGen{out: "generated"}
	s := New(Options{Rows: rows, Generator: gen, Rotation: teaching.Rotation(), Now: fixedNow(day)})

	got := s.Select(context.Background(), "hello")
	if got.Text != "hello" || got.Tier != TierCustom {
		t.Fatalf("Select = %+v, want hello/CUSTOM", got)
	}
	if rows.calls != 0 || len(gen.prompts) != 0 {
		t.Fatal("later tiers must not be evaluated after an override")
	}
}

func TestSelectWeeklyRow(t *testing.T) {
	t.Parallel()
	rows := &fakeRows{rows: [][]string{{"日付", "メッセージ"}, {"毎週", "weekly note"}}}
	s := New(Options{Rows: rows, Rotation: teaching.Rotation(), Now: fixedNow(day)})

	got := s.Select(context.Background(), "")
	if got.Text != "weekly note" || got.Tier != TierSheet {
		t.Fatalf("Select = %+v, want weekly note/SHEET", got)
	}
}

func TestSelectBlankSheetMessageFallsToRotation(t *testing.T) {
	t.Parallel()
	rows := &fakeRows{rows: [][]string{{"日付", "メッセージ"}, {"2025年03月10日", "  "}}}
	rot := teaching.Rotation()
	s := New(Options{Rows: rows, Rotation: rot, Now: fixedNow(day)})

	got := s.Select(context.Background(), "")
	if got.Tier != TierRotation {
		t.Fatalf("Tier = %v, want ROTATION", got.Tier)
	}
	want := strings.TrimSpace(rot[(69-1)%15].Text)
	if got.Text != want {
		t.Fatalf("Text = %q, want %q", got.Text, want)
	}
}

func TestSelectRowSourceErrorFallsThrough(t *testing.T) {
	t.Parallel()
	rows := &fakeRows{err: errors.New("403 forbidden")}
	s := New(Options{Rows: rows, Rotation: teaching.Rotation(), Now: fixedNow(day)})

	sel, outcomes := s.Run(context.Background(), s.Chain(), "")
	if sel.Tier != TierRotation {
		t.Fatalf("Tier = %v, want ROTATION", sel.Tier)
	}
	if len(outcomes) != 3 {
		t.Fatalf("outcomes = %d, want 3", len(outcomes))
	}
	if outcomes[1].Tier != TierSheet || outcomes[1].OK() {
		t.Fatalf("sheet outcome = %+v, want failure", outcomes[1])
	}
	if !strings.Contains(outcomes[1].Err.Error(), "403") {
		t.Fatalf("sheet error should carry cause: %v", outcomes[1].Err)
	}
}

func TestRotationFullCycle(t *testing.T) {
	t.Parallel()
	rot := teaching.Rotation()
	noMatch := &fakeRows{rows: [][]string{{"日付", "メッセージ"}, {"未定", "never"}}}

	// Starts in the last days of a leap year so the walk crosses Dec 31 -> Jan 1.
	start := time.Date(2024, 12, 20, 6, 0, 0, 0, JST)
	for d := 0; d < 380; d++ {
		at := start.AddDate(0, 0, d)
		s := New(Options{Rows: noMatch, Rotation: rot, Now: fixedNow(at)})
		got := s.Select(context.Background(), "")
		want := strings.TrimSpace(rot[(at.YearDay()-1)%15].Text)
		if got.Tier != TierRotation || got.Text != want {
			t.Fatalf("%s: got %v %q, want rotation[%d]", at.Format("2006-01-02"), got.Tier, got.Text, (at.YearDay()-1)%15)
		}
	}
}

func TestRotationYearWrap(t *testing.T) {
	t.Parallel()
	cases := []struct {
		at   time.Time
		want int
	}{
		{time.Date(2024, 12, 31, 6, 0, 0, 0, JST), 365 % 15},
		{time.Date(2025, 1, 1, 6, 0, 0, 0, JST), 0},
		{time.Date(2025, 12, 31, 6, 0, 0, 0, JST), 364 % 15},
		{time.Date(2026, 1, 1, 6, 0, 0, 0, JST), 0},
		// 2025-12-31T20:00Z is already Jan 1 in JST.
		{time.Date(2025, 12, 31, 20, 0, 0, 0, time.UTC), 0},
	}
	rot := teaching.Rotation()
	for _, tc := range cases {
		s := New(Options{Rotation: rot, Now: fixedNow(tc.at)})
		got := s.Select(context.Background(), "")
		if got.Tier != TierRotation || got.Text != strings.TrimSpace(rot[tc.want].Text) {
			t.Fatalf("%s: got %v %q, want rotation[%d]", tc.at, got.Tier, got.Text, tc.want)
		}
	}
}

func TestRotationDisabledUsesGenerator(t *testing.T) {
	t.Parallel()
	gen := &fakeGen{out: "  generated wisdom  "}
	s := New(Options{Generator: gen, Now: fixedNow(day)})

	got := s.Select(context.Background(), "")
	if got.Tier != TierGenerated || got.Text != "  generated wisdom  " {
		t.Fatalf("Select = %+v, want verbatim GENERATED", got)
	}
	if len(gen.prompts) != 1 || !strings.Contains(gen.prompts[0], "2025年03月10日") {
		t.Fatalf("prompt should embed today's date: %v", gen.prompts)
	}
}

func TestRotationDisabledGeneratorFailsUsesDefault(t *testing.T) {
	t.Parallel()
	gen := &fakeGen{err: errors.New("quota exceeded")}
	s := New(Options{Generator: gen, Now: fixedNow(day)})

	got := s.Select(context.Background(), "")
	if got.Tier != TierDefault || got.Text != DefaultText {
		t.Fatalf("Select = %+v, want DEFAULT", got)
	}
}

func TestBlankGeneratorOutputFallsThrough(t *testing.T) {
	t.Parallel()
	s := New(Options{Generator: &fakeGen{out: "\n \n"}, Default: "custom default", Now: fixedNow(day)})
	got := s.Select(context.Background(), "")
	if got.Tier != TierDefault || got.Text != "custom default" {
		t.Fatalf("Select = %+v, want configured default", got)
	}
}

func TestRotationLinkSuffix(t *testing.T) {
	t.Parallel()
	rot := teaching.Rotation()
	s := New(Options{Rotation: rot, LinkBaseURL: "https://example.org/", Now: fixedNow(time.Date(2025, 1, 1, 8, 0, 0, 0, JST))})

	got := s.Select(context.Background(), "")
	if !strings.HasSuffix(got.Text, "詳しくはこちら: https://example.org/blog/chudo") {
		t.Fatalf("missing link suffix: %q", got.Text)
	}
}

func TestPreviewChainSkipsRotation(t *testing.T) {
	t.Parallel()
	s := New(Options{Rotation: teaching.Rotation(), Now: fixedNow(day)})
	sel, outcomes := s.Run(context.Background(), PreviewChain, "")
	if sel.Tier != TierDefault {
		t.Fatalf("Tier = %v, want DEFAULT", sel.Tier)
	}
	for _, o := range outcomes {
		if o.Tier == TierRotation {
			t.Fatal("preview chain must not evaluate rotation")
		}
	}
	if !errors.Is(outcomes[0].Err, ErrNotConfigured) {
		t.Fatalf("sheet outcome err = %v, want ErrNotConfigured", outcomes[0].Err)
	}
}

func TestRunWithoutDefaultInChain(t *testing.T) {
	t.Parallel()
	s := New(Options{Now: fixedNow(day)})
	sel, outcomes := s.Run(context.Background(), []Tier{TierSheet}, "")
	if sel.Tier != TierDefault || sel.Text != DefaultText {
		t.Fatalf("Run = %+v, want DEFAULT fallback", sel)
	}
	if len(outcomes) != 2 || !outcomes[1].OK() {
		t.Fatalf("outcomes = %+v", outcomes)
	}
}

func TestSimple(t *testing.T) {
	t.Parallel()
	s := New(Options{Now: fixedNow(day)})
	got, err := s.Simple(context.Background())
	if err != nil || got.Text != SimpleDefaultText {
		t.Fatalf("Simple without generator = %+v, %v", got, err)
	}

	gen := &fakeGen{err: errors.New("down")}
	s = New(Options{Generator: gen, Now: fixedNow(day)})
	if _, err := s.Simple(context.Background()); err == nil {
		t.Fatal("expected generator error")
	}
	if !strings.Contains(gen.prompts[0], "3行") {
		t.Fatalf("unexpected simple prompt: %q", gen.prompts[0])
	}
}

func TestTierString(t *testing.T) {
	t.Parallel()
	names := map[Tier]string{
		TierCustom: "CUSTOM", TierSheet: "SHEET", TierRotation: "ROTATION",
		TierGenerated: "GENERATED", TierDefault: "DEFAULT", Tier(42): "UNKNOWN",
	}
	for tier, want := range names {
		if tier.String() != want {
			t.Fatalf("Tier(%d).String() = %q, want %q", int(tier), tier.String(), want)
		}
	}
}
