package dtos

type RegisterIdentityRequest struct {
	PublicKey string `json:"publicKey" validate:"required"`
}

type RegisterIdentityResponse struct {
	Success     bool   `json:"success"`
	Fingerprint string `json:"fingerprint"`
}

type IdentityResponse struct {
	Fingerprint string `json:"fingerprint"`
	DisplayName string `json:"displayName"`
	PublicKey   string `json:"publicKey"`
}
