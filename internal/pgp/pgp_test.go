package pgp

import (
	"errors"
	"io"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/packet"
	"github.com/poofware/locshare-service/internal/utils"
	"github.com/stretchr/testify/require"
)

func newTestKey(t *testing.T, name, email string) (*openpgp.Entity, string) {
	t.Helper()
	e, err := GenerateKey(name, email)
	require.NoError(t, err)
	pub, err := ArmorPublic(e)
	require.NoError(t, err)
	return e, pub
}

func TestParsePublicKey(t *testing.T) {
	e, pub := newTestKey(t, "Alice", "alice@example.com")

	key, err := ParsePublicKey(pub)
	require.NoError(t, err)
	require.Equal(t, Fingerprint(e), key.Fingerprint)
	require.Regexp(t, `^[0-9A-F]{16}$`, key.Fingerprint)
	require.Equal(t, "Alice", key.Name)
	require.Equal(t, "alice@example.com", key.Email)
}

func TestParsePublicKeyRejectsBadMaterial(t *testing.T) {
	e, _ := newTestKey(t, "Alice", "alice@example.com")
	other, _ := newTestKey(t, "Bob", "bob@example.com")

	priv, err := ArmorPrivate(e)
	require.NoError(t, err)
	both, err := armorWith(openpgp.PublicKeyType, func(w io.Writer) error {
		if err := e.Serialize(w); err != nil {
			return err
		}
		return other.Serialize(w)
	})
	require.NoError(t, err)

	cases := map[string]string{
		"garbage":  "not a key",
		"empty":    "",
		"private":  priv,
		"two keys": both,
	}
	for name, armored := range cases {
		_, err := ParsePublicKey(armored)
		require.Error(t, err, name)
		require.True(t, errors.Is(err, utils.ErrInvalidKeyMaterial), name)
	}
}

func TestParsePublicKeyRejectsRevoked(t *testing.T) {
	e, _ := newTestKey(t, "Mallory", "mallory@example.com")
	require.NoError(t, e.RevokeKey(packet.NoReason, "", nil))

	pub, err := ArmorPublic(e)
	require.NoError(t, err)

	_, err = ParsePublicKey(pub)
	require.True(t, errors.Is(err, utils.ErrInvalidKeyMaterial))
}

func TestCleartextVerify(t *testing.T) {
	alice, alicePub := newTestKey(t, "Alice", "alice@example.com")
	bob, _ := newTestKey(t, "Bob", "bob@example.com")

	aliceKey, err := ParsePublicKey(alicePub)
	require.NoError(t, err)

	signed, err := ClearSign(alice, "deadbeef")
	require.NoError(t, err)

	msg, err := DecodeCleartext(signed)
	require.NoError(t, err)
	require.Equal(t, "deadbeef", msg.Text())
	require.NoError(t, msg.Verify(aliceKey))

	forged, err := ClearSign(bob, "deadbeef")
	require.NoError(t, err)
	msg, err = DecodeCleartext(forged)
	require.NoError(t, err)
	require.Equal(t, "deadbeef", msg.Text())
	require.Error(t, msg.Verify(aliceKey))
}

func TestCleartextVerifyIsRepeatable(t *testing.T) {
	alice, alicePub := newTestKey(t, "Alice", "alice@example.com")
	_, bobPub := newTestKey(t, "Bob", "bob@example.com")

	aliceKey, err := ParsePublicKey(alicePub)
	require.NoError(t, err)
	bobKey, err := ParsePublicKey(bobPub)
	require.NoError(t, err)

	signed, err := ClearSign(alice, "cafebabe")
	require.NoError(t, err)
	msg, err := DecodeCleartext(signed)
	require.NoError(t, err)

	require.Error(t, msg.Verify(bobKey))
	require.NoError(t, msg.Verify(aliceKey))
	require.NoError(t, msg.Verify(aliceKey))
	require.Error(t, msg.Verify(bobKey))
}

func TestDecodeCleartextMalformed(t *testing.T) {
	_, err := DecodeCleartext("deadbeef")
	require.ErrorIs(t, err, ErrMalformedMessage)
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	alice, alicePub := newTestKey(t, "Alice", "alice@example.com")
	bob, _ := newTestKey(t, "Bob", "bob@example.com")

	key, err := ParsePublicKey(alicePub)
	require.NoError(t, err)

	armored, err := EncryptTo(key, []byte(`{"token":"abc"}`))
	require.NoError(t, err)
	require.NotContains(t, armored, "abc")

	plain, err := Decrypt(alice, armored)
	require.NoError(t, err)
	require.Equal(t, `{"token":"abc"}`, string(plain))

	_, err = Decrypt(bob, armored)
	require.Error(t, err)
}

func TestEncryptToMany(t *testing.T) {
	alice, _ := newTestKey(t, "Alice", "alice@example.com")
	bob, _ := newTestKey(t, "Bob", "bob@example.com")

	armored, err := Encrypt([]*openpgp.Entity{alice, bob}, []byte("here"))
	require.NoError(t, err)

	for _, e := range []*openpgp.Entity{alice, bob} {
		plain, err := Decrypt(e, armored)
		require.NoError(t, err)
		require.Equal(t, "here", string(plain))
	}

	_, err = Encrypt(nil, []byte("x"))
	require.Error(t, err)
}
