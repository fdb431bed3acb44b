package audit

import (
	"time"

	id "trialreg/pkg/domain"
)

// Action is the kind of mutation an entry records.
type Action string

const (
	ActionCreate Action = "CREATE"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
)

// Model names the record type an entry is about.
type Model string

const (
	ModelVolunteer     Model = "Volunteer"
	ModelStudy         Model = "Study"
	ModelParticipation Model = "Participation"
	ModelUser          Model = "User"
)

// ParseModel accepts a model name from a query filter.
func ParseModel(s string) (Model, bool) {
	switch m := Model(s); m {
	case ModelVolunteer, ModelStudy, ModelParticipation, ModelUser:
		return m, true
	}
	return "", false
}

// Actor identifies who performed a mutation.
type Actor struct {
	UserID   id.UserID
	Username string
}

// Entry is one immutable audit log record.
//
// Invariants:
//   - Justification is non-empty for UPDATE and DELETE
//   - Changes never contains Unchanged values
type Entry struct {
	ID            id.AuditEntryID
	Timestamp     time.Time
	Actor         Actor
	Action        Action
	Model         Model
	RecordID      string
	Justification string
	Changes       ChangeSet
	Client        string
	RequestID     string
	// PublishedAt is set once the entry has been relayed downstream.
	PublishedAt *time.Time
}

// ListFilter narrows an audit log listing.
type ListFilter struct {
	Model Model
	Limit int
}

// DefaultListLimit caps listings when the caller gives no limit.
const DefaultListLimit = 100

// MaxListLimit is the largest page a caller may request.
const MaxListLimit = 1000

// Normalize clamps the limit into range.
func (f *ListFilter) Normalize() {
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
}

// Matches reports whether e passes the filter.
func (f ListFilter) Matches(e *Entry) bool {
	return f.Model == "" || e.Model == f.Model
}
