package utils

const (
	OrganizationName                      = "Poof"
	CORSLowSecurityAllowedOriginLocalhost = "http://localhost:*"

	// ChallengeLength and BearerSecretLength are in hex characters.
	ChallengeLength    = 128
	BearerSecretLength = 128

	MinFetchLimit     = 1
	MaxFetchLimit     = 100
	DefaultFetchLimit = 50
)
