package game

import "testing"

func TestParseSingleResult(t *testing.T) {
	results := Parse("<@111> 5-3 <@222> (90)")
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	r := results[0]
	if r.PlayerAID != "111" || r.PlayerBID != "222" {
		t.Errorf("player ids = %s, %s; want 111, 222", r.PlayerAID, r.PlayerBID)
	}
	if r.ScoreA != 5 || r.ScoreB != 3 {
		t.Errorf("scores = %d-%d; want 5-3", r.ScoreA, r.ScoreB)
	}
	if r.EgoA != 90 || r.EgoB != 90 {
		t.Errorf("egos = %d/%d; want 90/90 (shared ego)", r.EgoA, r.EgoB)
	}
}

func TestParseVariants(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    Result
	}{
		{
			name:    "split ego in mention order",
			content: "<@111> 5-3 <@222> (80/90)",
			want:    Result{PlayerAID: "111", ScoreA: 5, ScoreB: 3, PlayerBID: "222", EgoA: 80, EgoB: 90},
		},
		{
			name:    "no parentheses",
			content: "<@111> 2-1 <@222> 75",
			want:    Result{PlayerAID: "111", ScoreA: 2, ScoreB: 1, PlayerBID: "222", EgoA: 75, EgoB: 75},
		},
		{
			name:    "nickname mention form",
			content: "<@!111> 7-4 <@!222> (60)",
			want:    Result{PlayerAID: "111", ScoreA: 7, ScoreB: 4, PlayerBID: "222", EgoA: 60, EgoB: 60},
		},
		{
			name:    "whitespace around split ego",
			content: "<@111>  10 - 8  <@222>  ( 80 / 90 )",
			want:    Result{PlayerAID: "111", ScoreA: 10, ScoreB: 8, PlayerBID: "222", EgoA: 80, EgoB: 90},
		},
		{
			name:    "surrounding prose",
			content: "gg today: <@111> 5-3 <@222> (90) close one",
			want:    Result{PlayerAID: "111", ScoreA: 5, ScoreB: 3, PlayerBID: "222", EgoA: 90, EgoB: 90},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := Parse(tt.content)
			if len(results) != 1 {
				t.Fatalf("expected 1 result, got %d", len(results))
			}
			if results[0] != tt.want {
				t.Errorf("got %+v, want %+v", results[0], tt.want)
			}
		})
	}
}

func TestParseMultipleResultsInOrder(t *testing.T) {
	content := "<@1> 5-3 <@2> (90)\n<@3> 2-4 <@4> (70/80)"
	results := Parse(content)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].PlayerAID != "1" || results[1].PlayerAID != "3" {
		t.Errorf("results out of appearance order: %+v", results)
	}
	if results[1].WinnerID() != "4" {
		t.Errorf("second result winner = %s, want 4", results[1].WinnerID())
	}
}

func TestParseDropsTies(t *testing.T) {
	results := Parse("<@1> 5-5 <@2> (90)")
	if len(results) != 0 {
		t.Fatalf("tie should yield no results, got %d", len(results))
	}
}

func TestParseSkipsMalformedMatch(t *testing.T) {
	// The second score overflows int64, which is the only way a \d+ capture can
	// fail conversion. The valid match around it must survive.
	content := "<@1> 99999999999999999999999-3 <@2> (90)\n<@3> 1-0 <@4> (50)"
	results := Parse(content)
	if len(results) != 1 {
		t.Fatalf("expected 1 surviving result, got %d", len(results))
	}
	if results[0].PlayerAID != "3" {
		t.Errorf("surviving result = %+v, want the second statement", results[0])
	}
}

func TestParseNoMatch(t *testing.T) {
	for _, content := range []string{
		"",
		"just chatting",
		"5-3 no mentions here",
		"<@1> beat <@2>",
	} {
		if got := Parse(content); len(got) != 0 {
			t.Errorf("Parse(%q) = %d results, want 0", content, len(got))
		}
	}
}

func TestWinnerLoserAccessors(t *testing.T) {
	tests := []struct {
		name                 string
		r                    Result
		winner, loser        string
		winnerEgo, loserEgo  int
	}{
		{
			name:      "first mention wins",
			r:         Result{PlayerAID: "1", ScoreA: 5, ScoreB: 3, PlayerBID: "2", EgoA: 80, EgoB: 90},
			winner:    "1",
			loser:     "2",
			winnerEgo: 80,
			loserEgo:  90,
		},
		{
			name:      "second mention wins",
			r:         Result{PlayerAID: "1", ScoreA: 2, ScoreB: 6, PlayerBID: "2", EgoA: 80, EgoB: 90},
			winner:    "2",
			loser:     "1",
			winnerEgo: 90,
			loserEgo:  80,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.WinnerID(); got != tt.winner {
				t.Errorf("WinnerID = %s, want %s", got, tt.winner)
			}
			if got := tt.r.LoserID(); got != tt.loser {
				t.Errorf("LoserID = %s, want %s", got, tt.loser)
			}
			if got := tt.r.WinnerEgo(); got != tt.winnerEgo {
				t.Errorf("WinnerEgo = %d, want %d", got, tt.winnerEgo)
			}
			if got := tt.r.LoserEgo(); got != tt.loserEgo {
				t.Errorf("LoserEgo = %d, want %d", got, tt.loserEgo)
			}
		})
	}
}

func TestSortedPlayerIDs(t *testing.T) {
	tests := []struct {
		a, b      string
		low, high string
	}{
		{"222", "111", "111", "222"},
		{"111", "222", "111", "222"},
		// Numeric order, not lexicographic: 9 < 10.
		{"9", "10", "9", "10"},
		{"10", "9", "9", "10"},
	}
	for _, tt := range tests {
		r := Result{PlayerAID: tt.a, PlayerBID: tt.b}
		low, high := r.SortedPlayerIDs()
		if low != tt.low || high != tt.high {
			t.Errorf("SortedPlayerIDs(%s, %s) = %s, %s; want %s, %s", tt.a, tt.b, low, high, tt.low, tt.high)
		}
	}
}
