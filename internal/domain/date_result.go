package domain

type DateStatus string

const (
	DateStatusOK            DateStatus = "ok"
	DateStatusEmpty         DateStatus = "empty"
	DateStatusFailed        DateStatus = "failed"
	DateStatusSkippedFuture DateStatus = "skipped_future"
)

// DateResult tells apart a date that truly had no rates from a date that failed to fetch.
type DateResult struct {
	Date     string     `json:"date"`
	Status   DateStatus `json:"status"`
	Attempts int        `json:"attempts"`
	Records  int        `json:"records"`
	Err      error      `json:"-"`
}
