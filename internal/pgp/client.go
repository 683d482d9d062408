package pgp

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
	"github.com/ProtonMail/go-crypto/openpgp/clearsign"
	"github.com/ProtonMail/go-crypto/openpgp/packet"
)

var keyConfig = &packet.Config{Algorithm: packet.PubKeyAlgoEdDSA}

// GenerateKey creates an Ed25519 signing key with an X25519 encryption
// subkey.
func GenerateKey(name, email string) (*openpgp.Entity, error) {
	return openpgp.NewEntity(name, "", email, keyConfig)
}

func ArmorPublic(e *openpgp.Entity) (string, error) {
	return armorWith(openpgp.PublicKeyType, e.Serialize)
}

func ArmorPrivate(e *openpgp.Entity) (string, error) {
	return armorWith(openpgp.PrivateKeyType, func(w io.Writer) error {
		return e.SerializePrivate(w, nil)
	})
}

func armorWith(blockType string, serialize func(io.Writer) error) (string, error) {
	var buf bytes.Buffer
	w, err := armor.Encode(&buf, blockType, nil)
	if err != nil {
		return "", err
	}
	if err := serialize(w); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ReadPrivateKey loads an unencrypted armored private key.
func ReadPrivateKey(armored string) (*openpgp.Entity, error) {
	entities, err := openpgp.ReadArmoredKeyRing(strings.NewReader(armored))
	if err != nil {
		return nil, err
	}
	if len(entities) != 1 || entities[0].PrivateKey == nil {
		return nil, errors.New("expected exactly one private key")
	}
	return entities[0], nil
}

// ClearSign produces a cleartext-signed message of text.
func ClearSign(e *openpgp.Entity, text string) (string, error) {
	var buf bytes.Buffer
	w, err := clearsign.Encode(&buf, e.PrivateKey, nil)
	if err != nil {
		return "", err
	}
	if _, err := io.WriteString(w, text); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Decrypt opens an armored message with the given private key.
func Decrypt(e *openpgp.Entity, armored string) ([]byte, error) {
	block, err := armor.Decode(strings.NewReader(armored))
	if err != nil {
		return nil, err
	}
	md, err := openpgp.ReadMessage(block.Body, openpgp.EntityList{e}, nil, nil)
	if err != nil {
		return nil, err
	}
	return io.ReadAll(md.UnverifiedBody)
}
