package service

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"

	"pagepilot/internal/domain"
	"pagepilot/internal/repository"
	apperrors "pagepilot/pkg/errors"
	"pagepilot/pkg/logger"
)

const (
	verifyKeyPath  = "/connect/verify-key"
	exchangeTimout = 15 * time.Second
	bcryptCost     = 10
)

// keyExchange performs the one-time activation handshake with the content
// platform. The platform echoes the activation code reversed as a liveness
// check and returns the public/private token pair; only their bcrypt hashes
// are persisted, and always both together.
type keyExchange struct {
	optionRepo repository.OptionRepository
	httpClient *http.Client
	baseURL    string
	siteURL    string
	logger     *logger.Logger
}

// NewKeyExchange creates a new key exchange service
func NewKeyExchange(optionRepo repository.OptionRepository, baseURL, siteURL string, log *logger.Logger) KeyExchange {
	return &keyExchange{
		optionRepo: optionRepo,
		httpClient: &http.Client{Timeout: exchangeTimout},
		baseURL:    baseURL,
		siteURL:    siteURL,
		logger:     log,
	}
}

// verifyKeyRequest is the payload sent to the remote authority
type verifyKeyRequest struct {
	VerificationKey string `json:"verification_key"`
	Site            string `json:"site"`
}

// verifyKeyResponse is the expected remote response shape
type verifyKeyResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Comparison string `json:"comparison"`
		Keys       struct {
			Public  string `json:"public"`
			Private string `json:"private"`
		} `json:"keys"`
	} `json:"data"`
}

// Activate exchanges the activation code for the API secrets. On any
// failure the previously stored secrets are left untouched.
func (s *keyExchange) Activate(ctx context.Context, activationCode string, reconnect bool) (string, error) {
	if activationCode == "" {
		return "", apperrors.NewValidationError("Verification key is missing or invalid", nil)
	}

	body, err := json.Marshal(verifyKeyRequest{
		VerificationKey: activationCode,
		Site:            s.siteURL,
	})
	if err != nil {
		return "", apperrors.NewInternalError("Failed to encode verification request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+verifyKeyPath, bytes.NewReader(body))
	if err != nil {
		return "", apperrors.NewInternalError("Failed to build verification request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", apperrors.NewExternalError("Could not reach the key authority", err)
	}
	defer resp.Body.Close()

	var result verifyKeyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", apperrors.NewExternalError("Malformed response from the key authority", err)
	}

	if !result.Success {
		return "", apperrors.NewExternalError("Invalid token, token has been used or expired", nil)
	}

	// The authority must echo the code reversed; a wrong echo means the
	// response does not belong to this activation attempt
	if result.Data.Comparison != reverse(activationCode) {
		return "", apperrors.NewExternalError("Invalid activation key", nil)
	}

	publicKey := result.Data.Keys.Public
	privateKey := result.Data.Keys.Private
	if publicKey == "" || privateKey == "" {
		return "", apperrors.NewExternalError("Key data is missing or invalid", nil)
	}

	publicHash, err := bcrypt.GenerateFromPassword([]byte(publicKey), bcryptCost)
	if err != nil {
		return "", apperrors.NewInternalError("Failed to hash public key", err)
	}
	privateHash, err := bcrypt.GenerateFromPassword([]byte(privateKey), bcryptCost)
	if err != nil {
		return "", apperrors.NewInternalError("Failed to hash private key", err)
	}

	// Both hashes land in one transaction or not at all
	err = s.optionRepo.SetAll(ctx, map[string]string{
		domain.OptionPublicKey:  string(publicHash),
		domain.OptionPrivateKey: string(privateHash),
	})
	if err != nil {
		return "", apperrors.NewInternalError("Failed to store API secrets", err)
	}

	s.logger.WithField("reconnect", reconnect).Info("Key exchange completed, secrets rotated")

	if reconnect {
		return "Reconnected successfully! You will be redirected to the dashboard shortly.", nil
	}
	return "Activation successful! You will be redirected to the dashboard shortly.", nil
}

// reverse returns s with its runes in reverse order
func reverse(s string) string {
	runes := []rune(s)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes)
}
