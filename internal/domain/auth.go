package domain

// Tier selects which stored secret a bearer token must match
type Tier string

const (
	// TierPublic gates analytics reads and listing endpoints
	TierPublic Tier = "public"
	// TierPrivate gates content mutation endpoints
	TierPrivate Tier = "private"
)

// Option names for the stored secret hashes. Secrets are written together
// by the key exchange and never individually.
const (
	OptionPublicKey  = "auth_key_public"
	OptionPrivateKey = "auth_key_private"
)

// ActivationRequest is the payload of the activation form submission
type ActivationRequest struct {
	FieldValue string `json:"field_value"`
	Reconnect  bool   `json:"reconnect"`
}
