package upstream

import "fmt"

// APIError is returned for every failed upstream call. Status is zero when
// no HTTP response was received (transport or decode failures); Err then
// holds the cause. Body is the decoded JSON body, or the raw text when it
// was not JSON.
type APIError struct {
	Status  int
	Message string
	Body    any
	Err     error
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("upstream: %s", e.Message)
	}
	return fmt.Sprintf("upstream: %s: %v", e.Message, e.Body)
}

func (e *APIError) Unwrap() error {
	return e.Err
}
