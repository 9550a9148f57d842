package classify

import (
	"strings"
	"testing"
)

func TestScore_ShortDurationNoNegativeSignals(t *testing.T) {
	// 150s + short desc + short title = 2+2+1 = 5 ≥ 3
	isShort, score := Score(150, "Quick tip", "A short clip", nil, LiveNone)
	if !isShort {
		t.Errorf("expected short, got score %d", score)
	}
	if score != 5 {
		t.Errorf("score = %d, want 5", score)
	}
}

func TestScore_LongDurationNoBoosts(t *testing.T) {
	longDesc := makeDescription(400)
	longTitle := "An extremely long and descriptive video title that goes well past seventy characters total"

	isShort, score := Score(200, longTitle, longDesc, nil, LiveNone)
	if isShort {
		t.Errorf("expected long-form, got score %d", score)
	}
	if score != 0 {
		t.Errorf("score = %d, want 0", score)
	}
}

func TestScore_HashtagSignals(t *testing.T) {
	cases := []struct {
		name  string
		title string
		desc  string
		tags  []string
		want  bool
	}{
		{"in title", "funny moment #shorts", "", nil, true},
		{"in description", "funny moment", "watch more #Shorts here", nil, true},
		{"in tags", "funny moment", "", []string{"comedy", "Shorts"}, true},
		{"absent", "funny moment", "just a clip", []string{"comedy"}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := hasShortsHashtag(tc.title, tc.desc, tc.tags); got != tc.want {
				t.Errorf("hasShortsHashtag = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestScore_LivePenalty(t *testing.T) {
	// 150s short video, but a live broadcast: 2+2+1-3 = 2 < 3
	for _, live := range []LiveStatus{LiveLive, LiveUpcoming, LiveCompleted} {
		isShort, score := Score(150, "Quick tip", "A short clip", nil, live)
		if isShort {
			t.Errorf("live=%s: expected long-form, got score %d", live, score)
		}
		if score != 2 {
			t.Errorf("live=%s: score = %d, want 2", live, score)
		}
	}
}

func TestScore_ChapterTimestamps(t *testing.T) {
	// Timestamps in a long description look like a chapter list.
	desc := "Intro 0:00 Setup 2:15 Review 10:30 " + makeDescription(100)
	if len(desc) <= minChapterDescLen {
		t.Fatalf("test description too short: %d", len(desc))
	}

	// 150s, short title, short-enough desc, but chapters: 2+2+1-3 = 2 < 3
	isShort, score := Score(150, "Quick tip", desc, nil, LiveNone)
	if isShort {
		t.Errorf("expected long-form, got score %d", score)
	}
	if score != 2 {
		t.Errorf("score = %d, want 2", score)
	}

	// Same timestamps in a description too short to be a chapter list do
	// not count against the video.
	_, scoreShortDesc := Score(150, "Quick tip", "Highlight at 1:23", nil, LiveNone)
	if scoreShortDesc != 5 {
		t.Errorf("short-desc score = %d, want 5", scoreShortDesc)
	}
}

func TestScore_LengthLimitsCountCharactersNotBytes(t *testing.T) {
	// 290 accented characters encode to 580 bytes; the description still
	// sits under the 300-character limit. Same idea for the 69-rune title.
	desc := strings.Repeat("é", 290)
	title := strings.Repeat("é", 69)

	// 150s + short desc + short title = 2+2+1 = 5 ≥ 3
	isShort, score := Score(150, title, desc, nil, LiveNone)
	if !isShort {
		t.Errorf("expected short, got score %d", score)
	}
	if score != 5 {
		t.Errorf("score = %d, want 5", score)
	}

	// One character past the limits drops both signals.
	_, score = Score(150, strings.Repeat("é", 71), strings.Repeat("é", 301), nil, LiveNone)
	if score != 2 {
		t.Errorf("score = %d, want 2 (duration only)", score)
	}
}

func TestScore_ZeroDurationGetsNoDurationBoost(t *testing.T) {
	_, score := Score(0, "Quick tip", "A short clip", nil, LiveNone)
	if score != 3 {
		t.Errorf("score = %d, want 3 (no duration signal)", score)
	}
}

func TestByDurationOnly(t *testing.T) {
	cases := []struct {
		duration int
		want     bool
	}{
		{0, false},
		{1, true},
		{180, true},
		{181, false},
		{3600, false},
	}
	for _, tc := range cases {
		if got := ByDurationOnly(tc.duration); got != tc.want {
			t.Errorf("ByDurationOnly(%d) = %v, want %v", tc.duration, got, tc.want)
		}
	}
}

func makeDescription(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = 'x'
	}
	return string(b)
}
