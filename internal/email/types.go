package email

import "fmt"

// MessageRef identifies a message returned by a search
type MessageRef struct {
	ID string
}

// ListResult is the outcome of a single capped search call
type ListResult struct {
	Refs      []MessageRef
	Cap       int64
	Estimate  int64 // provider's result size estimate, may be 0
	Truncated bool  // more matches may exist beyond Cap
}

// Record is the extracted metadata of one message. Data fields are nil
// when the header is absent or extraction failed.
type Record struct {
	ID           string  `json:"id"`
	To           *string `json:"to"`
	Date         *string `json:"date"`
	InternalDate *int64  `json:"internalDate"`
	Error        *string `json:"error,omitempty"`
}

// Failed reports whether extraction of this message failed
func (r Record) Failed() bool {
	return r.Error != nil
}

// FailedRecord builds the record returned when a message cannot be extracted
func FailedRecord(id string, err error) Record {
	msg := err.Error()
	return Record{ID: id, Error: &msg}
}

// CountFailed returns the number of records carrying an extraction error
func CountFailed(records []Record) int {
	n := 0
	for _, r := range records {
		if r.Failed() {
			n++
		}
	}
	return n
}

// FetchError wraps a failure of the message search call
type FetchError struct {
	Query string
	Err   error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to list messages for query %q: %v", e.Query, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
