package objectstore

import (
	"errors"
	"fmt"
	"io"
	"os"

	"filippo.io/age"
)

// Sealer encrypts footage at rest with age X25519 keys. A Sealer without an identity can
// seal but not open.
type Sealer struct {
	recipient age.Recipient
	identity  age.Identity
}

func NewSealer(recipient age.Recipient, identity age.Identity) *Sealer {
	return &Sealer{recipient: recipient, identity: identity}
}

// LoadSealer parses an age public key and, when identityPath is set, the matching key file.
// It returns nil when no recipient is configured.
func LoadSealer(recipient, identityPath string) (*Sealer, error) {
	if recipient == "" {
		return nil, nil
	}
	r, err := age.ParseX25519Recipient(recipient)
	if err != nil {
		return nil, fmt.Errorf("parsing age recipient: %w", err)
	}
	s := &Sealer{recipient: r}
	if identityPath == "" {
		return s, nil
	}

	f, err := os.Open(identityPath)
	if err != nil {
		return nil, fmt.Errorf("opening age identity: %w", err)
	}
	defer f.Close()
	ids, err := age.ParseIdentities(f)
	if err != nil {
		return nil, fmt.Errorf("parsing age identity: %w", err)
	}
	if len(ids) == 0 {
		return nil, errors.New("no identities found in age identity file")
	}
	s.identity = ids[0]
	return s, nil
}

// Seal returns a writer that encrypts into w. Close must be called to flush the last chunk.
func (s *Sealer) Seal(w io.Writer) (io.WriteCloser, error) {
	enc, err := age.Encrypt(w, s.recipient)
	if err != nil {
		return nil, fmt.Errorf("creating encrypted writer: %w", err)
	}
	return enc, nil
}

// Open returns a reader of the plaintext of sealed.
func (s *Sealer) Open(sealed io.Reader) (io.Reader, error) {
	if s.identity == nil {
		return nil, errors.New("no age identity configured to open sealed footage")
	}
	r, err := age.Decrypt(sealed, s.identity)
	if err != nil {
		return nil, fmt.Errorf("decrypting footage: %w", err)
	}
	return r, nil
}
