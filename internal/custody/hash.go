package custody

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"camwatch/internal/domain"
)

// GenesisHash is the previous-entry hash of the first entry in every chain.
const GenesisHash = domain.GenesisHash

// canonicalEntry fixes field order and timestamp format for hashing.
type canonicalEntry struct {
	EvidenceID    string `json:"evidence_id"`
	Index         int    `json:"index"`
	ActorID       string `json:"actor_id"`
	Action        string `json:"action"`
	Timestamp     string `json:"timestamp"`
	ContentHash   string `json:"content_hash"`
	PreviousHash  string `json:"previous_entry_hash"`
	CorrectsIndex *int   `json:"corrects_index"`
	Note          string `json:"note"`
}

// HashEntry computes the entry hash over every field except EntryHash itself.
func HashEntry(en domain.CustodyEntry) string {
	b, _ := json.Marshal(canonicalEntry{
		EvidenceID:    en.EvidenceID.String(),
		Index:         en.Index,
		ActorID:       en.ActorID,
		Action:        string(en.Action),
		Timestamp:     en.Timestamp.UTC().Format(time.RFC3339Nano),
		ContentHash:   en.ContentHash,
		PreviousHash:  en.PreviousEntryHash,
		CorrectsIndex: en.CorrectsIndex,
		Note:          en.Note,
	})
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// HashContent streams r through SHA-256 and returns the hex digest and byte count.
func HashContent(r io.Reader) (string, int64, error) {
	h := sha256.New()
	n, err := io.Copy(h, r)
	if err != nil {
		return "", n, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// hashPayload returns "" for a nil payload.
func hashPayload(op string, payload io.Reader) (string, error) {
	if payload == nil {
		return "", nil
	}
	sum, _, err := HashContent(payload)
	if err != nil {
		return "", fmt.Errorf("%s: hash payload: %w", op, err)
	}
	return sum, nil
}

func isDigest(s string) bool {
	if len(s) != sha256.Size*2 {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
