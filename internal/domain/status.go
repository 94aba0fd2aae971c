package domain

// Status is the lifecycle state of a request or donation. Approved and
// Rejected are terminal: once set they never change.
type Status string

const (
	StatusPending  Status = "Pending"
	StatusApproved Status = "Approved"
	StatusRejected Status = "Rejected"
)

// ParseStatus validates a raw string against the status enumeration.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.IsValid() {
		return "", ErrInvalidStatusFilter
	}
	return st, nil
}

// IsValid checks if the status is one of the supported enum values.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is permitted.
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// String returns the string representation.
func (s Status) String() string {
	return string(s)
}

// EntityKind distinguishes requests from donations in errors, events, and
// the orchestrator dispatch.
type EntityKind string

const (
	KindRequest  EntityKind = "request"
	KindDonation EntityKind = "donation"
)

// IsValid checks if the kind is one of the supported enum values.
func (k EntityKind) IsValid() bool {
	return k == KindRequest || k == KindDonation
}

// String returns the string representation.
func (k EntityKind) String() string {
	return string(k)
}
