// Package game parses free-form scrimmage result messages into structured outcomes.
package game

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/lowdens/scrimbot/telemetry"
)

// resultPattern matches one reported result: two player mentions around a score
// pair, followed by an ego value. Parentheses around the ego are optional and a
// single ego applies to both players, e.g. "<@1> 5-3 <@2> (80/90)" or
// "<@1> 5-3 <@2> 90".
var resultPattern = regexp.MustCompile(`<@!?(\d+)>\s*(\d+)\s*-\s*(\d+)\s*<@!?(\d+)>\s*\(?\s*(\d+(?:\s*/\s*\d+)?)\s*\)?`)

// Result is one parsed scrimmage outcome. Player order follows mention order in
// the message, not winner/loser order.
type Result struct {
	PlayerAID string
	ScoreA    int
	ScoreB    int
	PlayerBID string
	EgoA      int
	EgoB      int
}

// WinnerID returns the id of the winning player.
func (r Result) WinnerID() string {
	if r.ScoreA > r.ScoreB {
		return r.PlayerAID
	}
	return r.PlayerBID
}

// LoserID returns the id of the losing player.
func (r Result) LoserID() string {
	if r.ScoreA > r.ScoreB {
		return r.PlayerBID
	}
	return r.PlayerAID
}

// WinnerEgo returns the ego value attached to the winner.
func (r Result) WinnerEgo() int {
	if r.ScoreA > r.ScoreB {
		return r.EgoA
	}
	return r.EgoB
}

// LoserEgo returns the ego value attached to the loser.
func (r Result) LoserEgo() int {
	if r.ScoreA > r.ScoreB {
		return r.EgoB
	}
	return r.EgoA
}

// IsTie reports whether the scores are equal. Ties carry no title consequence
// and are dropped by Parse.
func (r Result) IsTie() bool {
	return r.ScoreA == r.ScoreB
}

// SortedPlayerIDs returns the two player ids in ascending numeric order, used
// to build result keys that are stable regardless of mention order.
func (r Result) SortedPlayerIDs() (string, string) {
	if LessID(r.PlayerBID, r.PlayerAID) {
		return r.PlayerBID, r.PlayerAID
	}
	return r.PlayerAID, r.PlayerBID
}

// LessID compares decimal snowflake id strings numerically: a shorter string is
// always the smaller number, equal lengths compare lexicographically.
func LessID(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

// Parse scans content for result statements and returns them in order of
// appearance. Ties are dropped and a malformed numeric field skips only the
// match containing it. A message with no results yields an empty slice, never
// an error.
func Parse(content string) []Result {
	var results []Result
	for _, m := range resultPattern.FindAllStringSubmatch(content, -1) {
		r, err := fromMatch(m)
		if err != nil {
			telemetry.IncParseSkip()
			slog.Warn("skipping malformed result", slog.Any("err", err), slog.String("match", m[0]))
			continue
		}
		if r.IsTie() {
			slog.Debug("ignoring tie result", slog.Int("score_a", r.ScoreA), slog.Int("score_b", r.ScoreB))
			continue
		}
		results = append(results, r)
	}
	return results
}

func fromMatch(m []string) (Result, error) {
	scoreA, err := strconv.Atoi(m[2])
	if err != nil {
		return Result{}, fmt.Errorf("score %q: %w", m[2], err)
	}
	scoreB, err := strconv.Atoi(m[3])
	if err != nil {
		return Result{}, fmt.Errorf("score %q: %w", m[3], err)
	}
	egoA, egoB, err := parseEgo(m[5])
	if err != nil {
		return Result{}, err
	}
	return Result{
		PlayerAID: m[1],
		ScoreA:    scoreA,
		ScoreB:    scoreB,
		PlayerBID: m[4],
		EgoA:      egoA,
		EgoB:      egoB,
	}, nil
}

// parseEgo handles both forms: "90" applies to both players, "80/90" splits in
// mention order.
func parseEgo(s string) (int, int, error) {
	if first, second, ok := strings.Cut(s, "/"); ok {
		egoA, err := strconv.Atoi(strings.TrimSpace(first))
		if err != nil {
			return 0, 0, fmt.Errorf("ego %q: %w", first, err)
		}
		egoB, err := strconv.Atoi(strings.TrimSpace(second))
		if err != nil {
			return 0, 0, fmt.Errorf("ego %q: %w", second, err)
		}
		return egoA, egoB, nil
	}
	ego, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, 0, fmt.Errorf("ego %q: %w", s, err)
	}
	return ego, ego, nil
}
