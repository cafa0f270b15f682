package gravatar

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/minecom/minedash/internal/config"
)

const baseURL = "https://www.gravatar.com/avatar/"

var (
	validDefaults = []string{"404", "mp", "identicon", "monsterid", "wavatar", "retro", "robohash", "blank"}
	validRatings  = []string{"g", "pg", "r", "x"}
)

// Resolver turns email addresses into Gravatar image URLs.
type Resolver struct {
	enabled bool
	query   string
}

// New creates a Resolver. Invalid settings are dropped with a warning so
// Gravatar falls back to its own defaults.
func New(cfg *config.GravatarConfig) *Resolver {
	if cfg == nil || !cfg.Enabled {
		return &Resolver{}
	}

	params := url.Values{}
	if cfg.DefaultImage != "" {
		if slices.Contains(validDefaults, cfg.DefaultImage) {
			params.Set("d", cfg.DefaultImage)
		} else {
			log.Warn("Ignoring invalid gravatar default image", "default_image", cfg.DefaultImage)
		}
	}
	if cfg.Rating != "" {
		if slices.Contains(validRatings, cfg.Rating) {
			params.Set("r", cfg.Rating)
		} else {
			log.Warn("Ignoring invalid gravatar rating", "rating", cfg.Rating)
		}
	}
	if cfg.Size != 0 {
		if cfg.Size >= 1 && cfg.Size <= 2048 {
			params.Set("s", strconv.Itoa(cfg.Size))
		} else {
			log.Warn("Ignoring invalid gravatar size", "size", cfg.Size)
		}
	}

	return &Resolver{enabled: true, query: params.Encode()}
}

// URL returns the avatar URL of email, or an empty string if Gravatar is
// disabled or email is empty.
func (r *Resolver) URL(email string) string {
	if r == nil || !r.enabled {
		return ""
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return ""
	}

	sum := sha256.Sum256([]byte(email))
	u := baseURL + hex.EncodeToString(sum[:])
	if r.query != "" {
		u += "?" + r.query
	}
	return u
}
