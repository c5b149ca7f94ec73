package explore

// Phase is a state of the exploration loop.
type Phase int

const (
	// PhaseExploring fetches the seed page and collects its links.
	PhaseExploring Phase = iota
	// PhaseReading fetches one candidate and extracts its article.
	PhaseReading
	// PhaseEvaluating scores the article just read.
	PhaseEvaluating
	// PhaseRetrying picks the next candidate after a rejected article.
	PhaseRetrying
	// PhaseAccepted is terminal: a relevant article was found.
	PhaseAccepted
	// PhaseExhausted is terminal: the loop stopped without acceptance.
	PhaseExhausted
)

var phaseNames = [...]string{
	PhaseExploring:  "exploring",
	PhaseReading:    "reading",
	PhaseEvaluating: "evaluating",
	PhaseRetrying:   "retrying",
	PhaseAccepted:   "accepted",
	PhaseExhausted:  "exhausted",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// Terminal reports whether the loop ends in p.
func (p Phase) Terminal() bool {
	return p == PhaseAccepted || p == PhaseExhausted
}

// Why an exploration stopped.
const (
	StopRelevant            = "relevant"
	StopRetryLimit          = "retry_limit"
	StopCandidatesExhausted = "candidates_exhausted"
	StopBudgetExhausted     = "budget_exhausted"
	StopSeedUnreachable     = "seed_unreachable"
	StopCanceled            = "canceled"
)

// Trace actions. Browse, read and evaluate each cost one unit of budget;
// skip is free.
const (
	ActionBrowse   = "browse"
	ActionRead     = "read"
	ActionEvaluate = "evaluate"
	ActionSkip     = "skip"
)
