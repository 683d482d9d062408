// Package pgp wraps the OpenPGP operations locshare needs: validating
// armored public keys, reading cleartext-signed challenges, and encrypting
// bearer secrets to their owner. The client-side half (key generation,
// signing, decryption) lives in client.go.
package pgp
