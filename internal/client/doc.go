// Package client talks to the location-sharing service on behalf of a key
// holder. It runs the challenge-response login, encrypts location payloads
// to every member of the target groups before they leave the device, and
// decrypts fetched records locally. The server only ever sees ciphertext.
package client
