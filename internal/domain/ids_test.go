package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeID(t *testing.T) {
	canonical := "550e8400-e29b-41d4-a716-446655440000"

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "canonical form", input: canonical, want: canonical},
		{name: "compact form", input: "550e8400e29b41d4a716446655440000", want: canonical},
		{name: "uppercase compact", input: "550E8400E29B41D4A716446655440000", want: canonical},
		{name: "surrounding whitespace", input: "  " + canonical + "  ", want: canonical},
		{name: "empty", input: "", wantErr: true},
		{name: "garbage", input: "not-a-uuid", wantErr: true},
		{name: "too short", input: "550e8400e29b41d4a716", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := NormalizeID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				de, ok := AsError(err)
				require.True(t, ok)
				assert.Equal(t, CodeInvalidFormat, de.Code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, id.String())
		})
	}
}

func TestNormalizeAgentName(t *testing.T) {
	assert.Equal(t, "coding-agent", NormalizeAgentName("@coding-agent"))
	assert.Equal(t, "coding-agent", NormalizeAgentName("Coding_Agent"))
	assert.Equal(t, "coding-agent", NormalizeAgentName("  coding agent  "))
	assert.Equal(t, "review-agent", NormalizeAgentName("@Review-Agent!"))
	assert.Equal(t, "", NormalizeAgentName("@"))
}

func TestAgentIDDeterministic(t *testing.T) {
	projectA := uuid.New()
	projectB := uuid.New()

	// Same name, same project: stable id regardless of spelling.
	id1 := AgentID(projectA, "@coding-agent")
	id2 := AgentID(projectA, "coding_agent")
	assert.Equal(t, id1, id2)

	// Same name under a different project namespace: different id.
	assert.NotEqual(t, id1, AgentID(projectB, "coding-agent"))

	// Version 5 (SHA-1 name-based) UUID.
	assert.Equal(t, uuid.Version(5), id1.Version())
}

func TestResolveAgentIdentifier(t *testing.T) {
	project := uuid.New()

	raw := uuid.New()
	id, name, err := ResolveAgentIdentifier(project, raw.String())
	require.NoError(t, err)
	assert.Equal(t, raw, id)
	assert.Empty(t, name)

	id, name, err = ResolveAgentIdentifier(project, "@coding-agent")
	require.NoError(t, err)
	assert.Equal(t, "coding-agent", name)
	assert.Equal(t, AgentID(project, "coding-agent"), id)

	_, _, err = ResolveAgentIdentifier(project, "@!!!")
	require.Error(t, err)
}
