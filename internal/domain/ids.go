package domain

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// GlobalSingleton names the per-user global context. Callers may pass the
// literal "global"; it is normalized to this well-known identifier and the
// storage layer scopes the row by user.
var GlobalSingleton = uuid.MustParse("00000000-0000-0000-0000-000000000001")

var compactUUID = regexp.MustCompile(`^[0-9a-fA-F]{32}$`)

// NormalizeID parses an identifier in canonical (8-4-4-4-12) or compact
// (32 hex) form and returns the canonical UUID. Invalid input yields an
// INVALID_FORMAT error without touching storage.
func NormalizeID(raw string) (uuid.UUID, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return uuid.Nil, InvalidFormat("id", raw)
	}
	if compactUUID.MatchString(s) {
		s = s[0:8] + "-" + s[8:12] + "-" + s[12:16] + "-" + s[16:20] + "-" + s[20:32]
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, InvalidFormat("id", raw)
	}
	return id, nil
}

var nonKebab = regexp.MustCompile(`[^a-z0-9-]+`)

// NormalizeAgentName canonicalizes an agent reference: the optional "@"
// prefix is dropped, the name is lowercased and reduced to kebab-case.
func NormalizeAgentName(name string) string {
	s := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(name), "@"))
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "_", "-")
	s = strings.ReplaceAll(s, " ", "-")
	s = nonKebab.ReplaceAllString(s, "")
	s = strings.Trim(s, "-")
	return s
}

// AgentID deterministically derives a version-5 UUID for a named agent
// under the given project namespace, so "@coding-agent" always maps to the
// same id within a project.
func AgentID(projectID uuid.UUID, name string) uuid.UUID {
	return uuid.NewSHA1(projectID, []byte(NormalizeAgentName(name)))
}

// ResolveAgentIdentifier accepts either a UUID (canonical or compact) or a
// kebab-case agent name and returns the agent id plus the canonical name
// (empty when the caller passed a raw UUID).
func ResolveAgentIdentifier(projectID uuid.UUID, identifier string) (uuid.UUID, string, error) {
	if id, err := NormalizeID(identifier); err == nil {
		return id, "", nil
	}
	name := NormalizeAgentName(identifier)
	if name == "" {
		return uuid.Nil, "", InvalidFormat("agent_id", identifier)
	}
	return AgentID(projectID, name), name, nil
}
