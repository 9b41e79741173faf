package ingest

// Result holds the outcome of an import.
type Result struct {
	SessionsReceived int   `json:"sessions_received"`
	SessionsInserted int   `json:"sessions_inserted"`
	SessionsSkipped  int   `json:"sessions_skipped"`
	SetsInserted     int64 `json:"sets_inserted"`
	RecordsInserted  int   `json:"records_inserted"`

	Message string `json:"message,omitempty"`
}
