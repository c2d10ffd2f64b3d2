package api

// Remover captures the per-id removal used by queue and result workflows.
type Remover func(id string) bool

// RemoveOutcome names what happened to one requested id.
type RemoveOutcome string

const (
	RemoveOutcomeRemoved  RemoveOutcome = "removed"
	RemoveOutcomeNotFound RemoveOutcome = "not_found"
)

// RemoveResult reports the outcome for one id.
type RemoveResult struct {
	ID      string        `json:"id"`
	Outcome RemoveOutcome `json:"outcome"`
}

// RemoveResults reports a batch removal.
type RemoveResults struct {
	RemovedCount int            `json:"removedCount"`
	Items        []RemoveResult `json:"items"`
}

// RemoveByID removes ids one-by-one so each can report removed/not_found.
// Removal is idempotent, so repeated ids after the first report not_found.
func RemoveByID(remove Remover, ids []string) RemoveResults {
	result := RemoveResults{Items: make([]RemoveResult, 0, len(ids))}
	for _, id := range ids {
		if remove(id) {
			result.RemovedCount++
			result.Items = append(result.Items, RemoveResult{ID: id, Outcome: RemoveOutcomeRemoved})
			continue
		}
		result.Items = append(result.Items, RemoveResult{ID: id, Outcome: RemoveOutcomeNotFound})
	}
	return result
}
