package pgp

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/clearsign"
)

var (
	ErrMalformedMessage = errors.New("not a cleartext-signed message")
	ErrSignerMismatch   = errors.New("signer does not match claimed identity")
)

// SignedMessage is a decoded cleartext-signed message whose signature has
// not been checked yet.
type SignedMessage struct {
	block *clearsign.Block
	sig   []byte
}

// DecodeCleartext parses the message without trusting it.
func DecodeCleartext(message string) (*SignedMessage, error) {
	block, _ := clearsign.Decode([]byte(message))
	if block == nil || block.ArmoredSignature == nil {
		return nil, ErrMalformedMessage
	}
	// The armored body is a one-shot reader; keep the bytes so Verify can
	// run against any number of keys.
	sig, err := io.ReadAll(block.ArmoredSignature.Body)
	if err != nil || len(sig) == 0 {
		return nil, ErrMalformedMessage
	}
	return &SignedMessage{block: block, sig: sig}, nil
}

// Text is the signed plaintext with surrounding whitespace removed.
func (m *SignedMessage) Text() string {
	return strings.TrimSpace(string(m.block.Plaintext))
}

// Verify checks the signature against key alone and returns nil only if
// the signer is that key.
func (m *SignedMessage) Verify(key *PublicKey) error {
	signer, err := openpgp.CheckDetachedSignature(
		openpgp.EntityList{key.Entity},
		bytes.NewReader(m.block.Bytes),
		bytes.NewReader(m.sig),
		nil,
	)
	if err != nil {
		return err
	}
	if signer == nil || Fingerprint(signer) != key.Fingerprint {
		return ErrSignerMismatch
	}
	return nil
}
