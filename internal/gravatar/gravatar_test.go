package gravatar

import (
	"testing"

	"github.com/minecom/minedash/internal/config"
	"github.com/stretchr/testify/assert"
)

const testHash = "973dfe463ec85785f5f95af5ba3906eedb2d931c24e69824a89ea65dba4e813b"

func TestResolver_URL(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		config   *config.GravatarConfig
		expected string
	}{
		{
			name:     "disabled gravatar",
			email:    "test@example.com",
			config:   &config.GravatarConfig{Enabled: false},
			expected: "",
		},
		{
			name:     "nil config",
			email:    "test@example.com",
			config:   nil,
			expected: "",
		},
		{
			name:     "empty email",
			email:    "   ",
			config:   &config.GravatarConfig{Enabled: true},
			expected: "",
		},
		{
			name:     "basic enabled config",
			email:    "test@example.com",
			config:   &config.GravatarConfig{Enabled: true},
			expected: baseURL + testHash,
		},
		{
			name:     "email is normalized",
			email:    "  Test@Example.COM ",
			config:   &config.GravatarConfig{Enabled: true},
			expected: baseURL + testHash,
		},
		{
			name:  "all parameters",
			email: "test@example.com",
			config: &config.GravatarConfig{
				Enabled:      true,
				DefaultImage: "identicon",
				Rating:       "pg",
				Size:         80,
			},
			expected: baseURL + testHash + "?d=identicon&r=pg&s=80",
		},
		{
			name:  "invalid parameters are dropped",
			email: "test@example.com",
			config: &config.GravatarConfig{
				Enabled:      true,
				DefaultImage: "cat",
				Rating:       "nc-17",
				Size:         4096,
			},
			expected: baseURL + testHash,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, New(tt.config).URL(tt.email))
		})
	}
}

func TestResolver_Nil(t *testing.T) {
	var r *Resolver
	assert.Empty(t, r.URL("test@example.com"))
}
