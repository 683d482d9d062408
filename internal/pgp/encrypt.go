package pgp

import (
	"bytes"
	"errors"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
)

const messageType = "PGP MESSAGE"

// Encrypt returns an armored OpenPGP message readable by every recipient.
func Encrypt(recipients []*openpgp.Entity, plaintext []byte) (string, error) {
	if len(recipients) == 0 {
		return "", errors.New("no recipients")
	}

	var buf bytes.Buffer
	armored, err := armor.Encode(&buf, messageType, nil)
	if err != nil {
		return "", err
	}
	w, err := openpgp.Encrypt(armored, recipients, nil, nil, nil)
	if err != nil {
		return "", err
	}
	if _, err := w.Write(plaintext); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}
	if err := armored.Close(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// EncryptTo encrypts plaintext to a single identity key.
func EncryptTo(key *PublicKey, plaintext []byte) (string, error) {
	return Encrypt([]*openpgp.Entity{key.Entity}, plaintext)
}
