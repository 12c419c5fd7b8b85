package model

import "time"

// StateKey is the key under which the run state is persisted.
const StateKey = "STATE"

// RunState is the snapshot persisted at the end of a run and loaded at the
// start of the next one. Saved and Politeness feed back into a resumed run.
type RunState struct {
	// RunID identifies the run that wrote the snapshot.
	RunID string `json:"run_id,omitempty"`

	// Saved is the number of records written so far.
	Saved int64 `json:"saved"`

	// CompletedAt is when the run finished.
	CompletedAt time.Time `json:"completedAt"`

	// Stats are the final counters of the run.
	Stats StatsSnapshot `json:"stats"`

	// Politeness is the backoff state at the end of the run.
	Politeness PolitenessState `json:"politeness"`
}

// PolitenessState is the process-wide backoff state shared by all requests.
type PolitenessState struct {
	GlobalBackoff        time.Duration `json:"globalBackoff"`
	ConsecutiveSuccesses int           `json:"consecutiveSuccesses"`
	BlockedCount         int           `json:"blockedCount"`
}
