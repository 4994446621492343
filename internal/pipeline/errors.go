package pipeline

// EnrichmentError reports a failure to extract enriched facts from a
// syntax node. Enrichment failures never abort a run: the caller logs
// the error and moves on, leaving the node with whatever rows were
// already emitted.
type EnrichmentError struct {
	Stage string // analyzer that failed
	At    string // source location
	Msg   string
}

func (e *EnrichmentError) Error() string {
	if e.At == "" {
		return e.Stage + ": " + e.Msg
	}
	return e.Stage + " at " + e.At + ": " + e.Msg
}

func enrichErr(stage, at, msg string) *EnrichmentError {
	return &EnrichmentError{Stage: stage, At: at, Msg: msg}
}
