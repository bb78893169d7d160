package service

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// defaultBotNeedles are the user-agent fragments treated as bot traffic
var defaultBotNeedles = []string{"bot", "crawler", "spider", "slurp", "googlebot"}

// Fingerprinter derives a stable, non-reversible visitor identifier from
// request attributes. Raw address and user agent are never stored; only the
// digest leaves this type.
type Fingerprinter struct {
	salt string
}

// NewFingerprinter creates a fingerprinter with the process-wide salt
func NewFingerprinter(salt string) *Fingerprinter {
	return &Fingerprinter{salt: salt}
}

// Hash returns the 64-char hex digest for an (address, agent) pair. The
// same pair always maps to the same digest until the salt is rotated.
func (f *Fingerprinter) Hash(ipAddress, userAgent string) string {
	sum := sha256.Sum256([]byte(ipAddress + userAgent + f.salt))
	return fmt.Sprintf("%x", sum)
}

// substringBotClassifier flags user agents containing known bot fragments.
// A heuristic, not a security boundary.
type substringBotClassifier struct {
	needles []string
}

// NewBotClassifier creates the default substring-matching classifier
func NewBotClassifier(needles ...string) BotClassifier {
	if len(needles) == 0 {
		needles = defaultBotNeedles
	}
	return &substringBotClassifier{needles: needles}
}

// IsBot reports whether the user agent looks non-human. A missing user
// agent counts as a bot.
func (c *substringBotClassifier) IsBot(userAgent string) bool {
	if userAgent == "" {
		return true
	}

	agent := strings.ToLower(userAgent)
	for _, needle := range c.needles {
		if strings.Contains(agent, needle) {
			return true
		}
	}

	return false
}
