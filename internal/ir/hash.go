package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainCase  = "fascicolo/case/v1"
	DomainEvent = "fascicolo/event/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte (0x00) separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00}) // Null separator - CRITICAL for security
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// CaseHash computes the content hash of a case record. Two records hash
// equal iff their canonical JSON is identical.
func CaseHash(record any) (string, error) {
	canonical, err := MarshalCanonical(record)
	if err != nil {
		return "", fmt.Errorf("CaseHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainCase, canonical), nil
}

// EventID computes the content-addressed ID of an audit event.
// The ID is stable across replays given the same inputs.
func EventID(caseID string, seq int64, action, actorID string) (string, error) {
	obj := map[string]any{
		"action":   action,
		"actor_id": actorID,
		"case_id":  caseID,
		"seq":      seq,
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("EventID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainEvent, canonical), nil
}

// MustCaseHash is like CaseHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustCaseHash(record any) string {
	h, err := CaseHash(record)
	if err != nil {
		panic(err)
	}
	return h
}
