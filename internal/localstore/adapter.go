// Package localstore keeps the local JSON copy of the portfolio content.
package localstore

import (
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/kalambet/folio/internal/storage"
)

// Keys of the local copy. Values are JSON documents.
const (
	KeyPortfolioData    = "portfolioData"
	KeySkills           = "portfolioSkills"
	KeyAboutText        = "aboutText"
	KeyProjects         = "projects"
	KeyInternships      = "internships"
	KeyServices         = "services"
	KeyProfileTransform = "profileTransform"
	KeyProfileObjectFit = "profileObjectFit"
	KeyTheme            = "theme"
)

// KV is the raw key/value backend. Implemented by storage.Store and storage.RedisKV.
type KV interface {
	GetValue(key string) (string, error)
	SetValue(key, value string) error
	DeleteValue(key string) error
}

// Adapter encodes values as JSON over a KV and never fails: reads fall back
// to the caller's default, writes log and give up.
type Adapter struct {
	kv     KV
	logger *slog.Logger
}

// New creates an Adapter over kv.
func New(kv KV) *Adapter {
	return &Adapter{kv: kv, logger: slog.Default()}
}

// Get decodes the value stored under key into a T. A missing key, an empty
// value, a read error or a decode error all yield def.
func Get[T any](a *Adapter, key string, def T) T {
	raw, err := a.kv.GetValue(key)
	if errors.Is(err, storage.ErrNotFound) {
		return def
	}
	if err != nil {
		a.logger.Error("reading local value", "key", key, "error", err)
		return def
	}
	if raw == "" {
		return def
	}

	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		a.logger.Warn("malformed local value, using default", "key", key, "error", err)
		return def
	}
	return v
}

// Set stores value under key as JSON.
func (a *Adapter) Set(key string, value any) {
	b, err := json.Marshal(value)
	if err != nil {
		a.logger.Error("encoding local value", "key", key, "error", err)
		return
	}
	if err := a.kv.SetValue(key, string(b)); err != nil {
		a.logger.Error("writing local value", "key", key, "error", err)
	}
}

// Remove deletes key.
func (a *Adapter) Remove(key string) {
	if err := a.kv.DeleteValue(key); err != nil {
		a.logger.Error("removing local value", "key", key, "error", err)
	}
}
