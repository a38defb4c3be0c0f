package application

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"
)

// FormatLoader parses, validates, and caches tournament format documents.
// Identical YAML content compiles once: results are cached by SHA-256
// content hash and concurrent loads of the same document are collapsed
// with singleflight.
type FormatLoader struct {
	validator *validator.Validate

	// cache stores validated formats indexed by content hash.
	cache   map[string]FormatConfig
	cacheMu sync.RWMutex

	// sf prevents duplicate parsing when multiple goroutines request the
	// same document simultaneously.
	sf singleflight.Group
}

// NewFormatLoader creates a FormatLoader with an empty cache.
func NewFormatLoader() *FormatLoader {
	return &FormatLoader{
		validator: validator.New(),
		cache:     make(map[string]FormatConfig),
	}
}

// LoadFromFile loads a format document from a YAML file.
func (fl *FormatLoader) LoadFromFile(ctx context.Context, path string) (FormatConfig, error) {
	cleanPath := filepath.Clean(path)
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return FormatConfig{}, fmt.Errorf("failed to read format file %s: %w", cleanPath, err)
	}
	return fl.load(ctx, data)
}

// LoadFromReader loads a format document from an io.Reader.
func (fl *FormatLoader) LoadFromReader(ctx context.Context, r io.Reader) (FormatConfig, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return FormatConfig{}, fmt.Errorf("failed to read format document: %w", err)
	}
	return fl.load(ctx, buf.Bytes())
}

func (fl *FormatLoader) load(ctx context.Context, data []byte) (FormatConfig, error) {
	if err := ctx.Err(); err != nil {
		return FormatConfig{}, err
	}

	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	fl.cacheMu.RLock()
	cached, ok := fl.cache[hash]
	fl.cacheMu.RUnlock()
	if ok {
		return cached, nil
	}

	result, err, _ := fl.sf.Do(hash, func() (any, error) {
		config := DefaultFormatConfig()
		if err := yaml.Unmarshal(data, &config); err != nil {
			return FormatConfig{}, fmt.Errorf("failed to parse format YAML: %w", err)
		}
		if err := fl.validator.Struct(config); err != nil {
			return FormatConfig{}, fmt.Errorf("format validation failed: %w", err)
		}
		if err := config.validateSemantics(); err != nil {
			return FormatConfig{}, fmt.Errorf("format validation failed: %w", err)
		}

		fl.cacheMu.Lock()
		fl.cache[hash] = config
		fl.cacheMu.Unlock()
		return config, nil
	})
	if err != nil {
		return FormatConfig{}, err
	}
	return result.(FormatConfig), nil
}

// CacheSize returns the number of cached format documents.
func (fl *FormatLoader) CacheSize() int {
	fl.cacheMu.RLock()
	defer fl.cacheMu.RUnlock()
	return len(fl.cache)
}

// ClearCache empties the format cache.
func (fl *FormatLoader) ClearCache() {
	fl.cacheMu.Lock()
	defer fl.cacheMu.Unlock()
	fl.cache = make(map[string]FormatConfig)
}
