package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "trialreg/pkg/domain-errors"
)

// TestParseUUID_Invariants validates the parsing invariant:
// "IDs must be valid, non-empty, non-nil UUIDs"
func TestParseUUID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseVolunteerID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseVolunteerID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseStudyID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		validUUID := uuid.New()
		id, err := ParseVolunteerID(validUUID.String())
		require.NoError(t, err)
		assert.Equal(t, VolunteerID(validUUID), id)
	})
}

// TestParseID_TrustBoundary checks hostile input at API entry points.
func TestParseID_TrustBoundary(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"SQL injection attempt", "'; DROP TABLE volunteers;--", true},
		{"Path traversal", "../../../etc/passwd", true},
		{"Null byte injection", "550e8400\x00-e29b-41d4-a716-446655440000", true},
		{"Oversized input", strings.Repeat("a", 1000), true},
		{"Whitespace only", "   ", true},
		{"Uppercase valid UUID", "550E8400-E29B-41D4-A716-446655440000", false},
		{"Valid UUID lowercase", "550e8400-e29b-41d4-a716-446655440000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseParticipationID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestAllIDTypes_ConsistentBehavior(t *testing.T) {
	validUUID := uuid.New().String()

	_, errUser := ParseUserID(validUUID)
	_, errVolunteer := ParseVolunteerID(validUUID)
	_, errStudy := ParseStudyID(validUUID)
	_, errParticipation := ParseParticipationID(validUUID)
	require.NoError(t, errUser)
	require.NoError(t, errVolunteer)
	require.NoError(t, errStudy)
	require.NoError(t, errParticipation)

	for _, input := range []string{"", "invalid", uuid.Nil.String()} {
		t.Run("all reject: "+input, func(t *testing.T) {
			_, errUser := ParseUserID(input)
			_, errVolunteer := ParseVolunteerID(input)
			_, errStudy := ParseStudyID(input)
			_, errParticipation := ParseParticipationID(input)
			require.Error(t, errUser)
			require.Error(t, errVolunteer)
			require.Error(t, errStudy)
			require.Error(t, errParticipation)
		})
	}
}
