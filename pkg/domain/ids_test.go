package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "custodia/pkg/domain-errors"
)

func TestParseTreasuryID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid lowercase", "550e8400-e29b-41d4-a716-446655440000", false},
		{"valid uppercase", "550E8400-E29B-41D4-A716-446655440000", false},
		{"empty", "", true},
		{"whitespace only", "   ", true},
		{"not a uuid", "not-a-uuid", true},
		{"nil uuid", uuid.Nil.String(), true},
		{"sql injection attempt", "'; DROP TABLE treasuries;--", true},
		{"path traversal", "../../../etc/passwd", true},
		{"oversized input", strings.Repeat("a", 1000), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := ParseTreasuryID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
				return
			}
			require.NoError(t, err)
			assert.False(t, id.IsNil())
		})
	}
}

func TestParseIDsConsistentBehavior(t *testing.T) {
	valid := uuid.New().String()

	t.Run("all accept a valid uuid", func(t *testing.T) {
		_, errTreasury := ParseTreasuryID(valid)
		_, errProposal := ParseProposalID(valid)
		_, errPolicy := ParsePolicyID(valid)
		_, errEmergency := ParseEmergencyID(valid)

		require.NoError(t, errTreasury)
		require.NoError(t, errProposal)
		require.NoError(t, errPolicy)
		require.NoError(t, errEmergency)
	})

	for _, input := range []string{"", "invalid", uuid.Nil.String()} {
		t.Run("all reject: "+input, func(t *testing.T) {
			_, errTreasury := ParseTreasuryID(input)
			_, errProposal := ParseProposalID(input)
			_, errPolicy := ParsePolicyID(input)
			_, errEmergency := ParseEmergencyID(input)

			require.Error(t, errTreasury)
			require.Error(t, errProposal)
			require.Error(t, errPolicy)
			require.Error(t, errEmergency)
		})
	}
}

func TestIDStringRoundTrip(t *testing.T) {
	id := NewTreasuryID()
	parsed, err := ParseTreasuryID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestParseAddress(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Address
		wantErr bool
	}{
		{"plain identifier", "alice", Address("alice"), false},
		{"trims whitespace", "  alice  ", Address("alice"), false},
		{"empty", "", "", true},
		{"whitespace only", "   ", "", true},
		{"control characters", "al\x00ice", "", true},
		{"over the length cap", strings.Repeat("a", 129), "", true},
		{"at the length cap", strings.Repeat("a", 128), Address(strings.Repeat("a", 128)), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAddress(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDedupeAddresses(t *testing.T) {
	in := []Address{"a", "b", "a", "c", "b"}
	assert.Equal(t, []Address{"a", "b", "c"}, DedupeAddresses(in))
	assert.Empty(t, DedupeAddresses(nil))
}

func TestParseCategory(t *testing.T) {
	for _, valid := range []string{"withdrawal", "add_signer", "remove_signer", "update_threshold", "update_policy", "emergency", "other"} {
		c, err := ParseCategory(valid)
		require.NoError(t, err)
		assert.True(t, c.IsValid())
	}

	for _, invalid := range []string{"", "WITHDRAWAL", "transfer"} {
		_, err := ParseCategory(invalid)
		require.Error(t, err)
	}
}
