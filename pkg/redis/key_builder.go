package redis

import "fmt"

// KeyBuilder provides environment-aware Redis key building functionality
type KeyBuilder struct {
	prefix string // Environment prefix (staging/prod)
}

// NewKeyBuilder creates a new key builder with environment-based prefix
func NewKeyBuilder(environment string) *KeyBuilder {
	prefix := "prod"
	if environment == "development" || environment == "staging" || environment == "test" {
		prefix = "staging"
	}

	return &KeyBuilder{
		prefix: prefix,
	}
}

// BuildKey constructs a Redis key with the environment prefix
func (kb *KeyBuilder) BuildKey(key string) string {
	return fmt.Sprintf("%s:%s", kb.prefix, key)
}

// GetPrefix returns the current environment prefix
func (kb *KeyBuilder) GetPrefix() string {
	return kb.prefix
}

// View tracking key builders

func (kb *KeyBuilder) KeyViewSeen(postID int64, date, visitorHash string) string {
	return kb.BuildKey(fmt.Sprintf(KeyViewSeen, postID, date, visitorHash))
}

func (kb *KeyBuilder) KeyStatsPost(postID int64, start, end string) string {
	return kb.BuildKey(fmt.Sprintf(KeyStatsPost, postID, start, end))
}

func (kb *KeyBuilder) KeyStatsSite(start, end string) string {
	return kb.BuildKey(fmt.Sprintf(KeyStatsSite, start, end))
}

func (kb *KeyBuilder) KeyPostProvenance(postID int64) string {
	return kb.BuildKey(fmt.Sprintf(KeyPostProvenance, postID))
}

// PatternStatsPost matches every cached per-post stats range for invalidation
func (kb *KeyBuilder) PatternStatsPost() string {
	return kb.BuildKey("stats:post:*")
}

// PatternStatsSite matches every cached sitewide stats range
func (kb *KeyBuilder) PatternStatsSite() string {
	return kb.BuildKey("stats:site:*")
}
