// Package domain holds the typed identifiers shared across modules.
//
// Each ID wraps a uuid.UUID so that a VolunteerID can never be passed where a
// StudyID is expected. Construct IDs from external input with the Parse*
// functions; they reject empty, malformed and nil UUIDs.
package domain

import (
	"github.com/google/uuid"

	dErrors "trialreg/pkg/domain-errors"
)

type (
	UserID          uuid.UUID
	VolunteerID     uuid.UUID
	StudyID         uuid.UUID
	ParticipationID uuid.UUID
	AuditEntryID    uuid.UUID
)

func (id UserID) String() string          { return uuid.UUID(id).String() }
func (id VolunteerID) String() string     { return uuid.UUID(id).String() }
func (id StudyID) String() string         { return uuid.UUID(id).String() }
func (id ParticipationID) String() string { return uuid.UUID(id).String() }
func (id AuditEntryID) String() string    { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool          { return uuid.UUID(id) == uuid.Nil }
func (id VolunteerID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id StudyID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id ParticipationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func NewUserID() UserID                   { return UserID(uuid.New()) }
func NewVolunteerID() VolunteerID         { return VolunteerID(uuid.New()) }
func NewStudyID() StudyID                 { return StudyID(uuid.New()) }
func NewParticipationID() ParticipationID { return ParticipationID(uuid.New()) }
func NewAuditEntryID() AuditEntryID       { return AuditEntryID(uuid.New()) }

func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user id")
	return UserID(u), err
}

func ParseVolunteerID(s string) (VolunteerID, error) {
	u, err := parseUUID(s, "volunteer id")
	return VolunteerID(u), err
}

func ParseStudyID(s string) (StudyID, error) {
	u, err := parseUUID(s, "study id")
	return StudyID(u), err
}

func ParseParticipationID(s string) (ParticipationID, error) {
	u, err := parseUUID(s, "participation id")
	return ParticipationID(u), err
}

func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be nil")
	}
	return u, nil
}
