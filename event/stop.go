package event

import "github.com/pingcap/errors"

// StopEvent marks a clean server shutdown; it is always followed by a
// real rotate when replication resumes.
type StopEvent struct{}

func (StopEvent) Type() Type { return TypeStop }

func decodeStop(postHeader, body []byte) (StopEvent, error) {
	if len(postHeader) != 0 {
		return StopEvent{}, errors.Errorf("event: stop post-header must be empty, got %d bytes", len(postHeader))
	}
	if len(body) != 0 {
		return StopEvent{}, errors.Errorf("event: stop body must be empty, got %d bytes", len(body))
	}
	return StopEvent{}, nil
}
