package domain

import (
	"time"

	"github.com/google/uuid"
)

// GenesisHash is the previous-entry hash of the first entry in every custody chain.
const GenesisHash = "0000000000000000000000000000000000000000000000000000000000000000"

type CustodyAction string

const (
	CustodyUploaded    CustodyAction = "uploaded"
	CustodyVerified    CustodyAction = "verified"
	CustodyAccessed    CustodyAction = "accessed"
	CustodyTransferred CustodyAction = "transferred"
	CustodyExported    CustodyAction = "exported"
	CustodyCorrected   CustodyAction = "corrected"
	CustodyDisposed    CustodyAction = "disposed"
)

func (a CustodyAction) Valid() bool {
	switch a {
	case CustodyUploaded, CustodyVerified, CustodyAccessed, CustodyTransferred,
		CustodyExported, CustodyCorrected, CustodyDisposed:
		return true
	}
	return false
}

// CustodyEntry is immutable once appended.
type CustodyEntry struct {
	EvidenceID        uuid.UUID     `json:"evidence_id"`
	Index             int           `json:"index"`
	ActorID           string        `json:"actor_id"`
	Action            CustodyAction `json:"action"`
	Timestamp         time.Time     `json:"timestamp"`
	ContentHash       string        `json:"content_hash"`
	PreviousEntryHash string        `json:"previous_entry_hash"`
	EntryHash         string        `json:"entry_hash"`
	CorrectsIndex     *int          `json:"corrects_index,omitempty"`
	Note              string        `json:"note,omitempty"`
}

type ChainVerification struct {
	Valid         bool `json:"valid"`
	Length        int  `json:"length"`
	BrokenAtIndex *int `json:"broken_at_index,omitempty"`
}

type Evidence struct {
	ID          uuid.UUID `json:"id"`
	RequestID   uuid.UUID `json:"request_id"`
	CameraID    uuid.UUID `json:"camera_id"`
	UploaderID  string    `json:"uploader_id"`
	ObjectKey   string    `json:"object_key"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	ContentHash string    `json:"content_hash"`
	Sealed      bool      `json:"sealed"`
	CreatedAt   time.Time `json:"created_at"`
}
