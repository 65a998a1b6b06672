package tracker

// Outcome classifies one reconciliation pass.
type Outcome int

const (
	// OutcomeNoop means the event required no work.
	OutcomeNoop Outcome = iota
	// OutcomeNoMatch means the message carried no recognizable result.
	OutcomeNoMatch
	// OutcomeApplied means at least the message fingerprint was recorded and
	// any unseen results were folded into the state.
	OutcomeApplied
	// OutcomeDuplicate means the message was already processed with
	// identical content.
	OutcomeDuplicate
	// OutcomeRecalculated means the state was rebuilt from the recent
	// channel window.
	OutcomeRecalculated
	// OutcomeIgnoredTooOld means an edit changed a recorded winner but the
	// message has left the recent window, so the edit was discarded.
	OutcomeIgnoredTooOld
	// OutcomeExpired means the reign timed out during a sweep.
	OutcomeExpired
	// OutcomeAborted means history could not be fetched and the pass left
	// the state exactly as it was.
	OutcomeAborted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNoop:
		return "noop"
	case OutcomeNoMatch:
		return "no_match"
	case OutcomeApplied:
		return "applied"
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeRecalculated:
		return "recalculated"
	case OutcomeIgnoredTooOld:
		return "ignored_too_old"
	case OutcomeExpired:
		return "expired"
	case OutcomeAborted:
		return "aborted"
	default:
		return "unknown"
	}
}
