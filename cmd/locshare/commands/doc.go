// Package commands defines the locshare CLI.
//
// Commands
//
//   - keygen     Create a local OpenPGP key
//   - register   Register the local public key with the server
//   - login      Run the challenge-response login and save the session
//   - groups     Create, list and extend groups
//   - publish    Encrypt a location to group members and upload it
//   - fetch      Download and decrypt shared locations
//
// State lives under ~/.locshare unless --home is given.
package commands
