package dtos

type ChallengeRequest struct {
	Fingerprint string `json:"fingerprint" validate:"required,max=64"`
}

type ChallengeResponse struct {
	Challenge string `json:"challenge"`
}

type AttestationRequest struct {
	SignedChallengeMessage string `json:"signedChallengeMessage" validate:"required"`
}

// AttestationResponse carries the bearer secret as an armored OpenPGP
// message only the caller's private key can open.
type AttestationResponse struct {
	EncryptedBearerSecret string `json:"encryptedBearerSecret"`
}

// BearerPayload is the plaintext inside EncryptedBearerSecret.
type BearerPayload struct {
	Token string `json:"token"`
}
