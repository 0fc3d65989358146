package audit

// EntryOperation is the flattened operation recorded in each audit entry.
type EntryOperation struct {
	ID       string `json:"id"`
	Category string `json:"category"`
}

// Entry is one line in the hash-chained JSONL outcome log. All fields are
// structs (no map[string]any) to guarantee deterministic json.Marshal field
// order for reproducible hashing.
type Entry struct {
	Timestamp    string         `json:"ts"`
	RunID        string         `json:"run_id"`
	Operation    EntryOperation `json:"operation"`
	Decision     string         `json:"decision"`
	Status       string         `json:"status"`
	Reason       string         `json:"reason,omitempty"`
	CheckpointID string         `json:"checkpoint_id,omitempty"`
	PolicyHash   string         `json:"policy_hash"`
	PrevHash     string         `json:"prev_hash"`
}
