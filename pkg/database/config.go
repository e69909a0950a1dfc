package database

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"
)

// Config holds the per-database settings consulted by the page cache,
// column chunk, and compression layers.
//
// Grounded on the teacher's root Config/LoadConfig (JSON-with-comments
// via github.com/tailscale/hujson, global-then-project precedence): this
// Config follows the same file-loading shape, with a single precedence
// step (built-in default -> `<dbdir>/graphcore.json`) instead of the
// teacher's global+project+CLI chain, since a database directory has no
// analogue of a project-root search.
type Config struct {
	// PageCacheSize is the target number of pages kept resident (spec.md
	// §4.1 component A); this implementation always keeps whatever is
	// mmap'd resident via the OS, so this is advisory metadata surfaced
	// to callers rather than an enforced cache bound.
	PageCacheSize int `json:"page_cache_size,omitempty"` //nolint:tagliatelle

	// NodeGroupSize is the row count of a node group (spec.md GLOSSARY:
	// "typically 2^20 rows"). It is loaded and surfaced to callers but
	// not consulted by table storage, which sizes each flushed page from
	// the page size and the column widths.
	NodeGroupSize int `json:"node_group_size,omitempty"` //nolint:tagliatelle

	// PreferBitpacking is loaded and surfaced to callers but not
	// consulted by column storage: a flushed page uses constant
	// compression when its non-null values are all equal and integer
	// bitpacking otherwise, whatever this field says.
	PreferBitpacking bool `json:"prefer_bitpacking,omitempty"` //nolint:tagliatelle
}

// ConfigFileName is the per-database config file name, consulted inside
// the database directory the same way the teacher looks for `.tk.json`
// at a project root.
const ConfigFileName = "graphcore.json"

// DefaultConfig returns the built-in defaults applied before any file is
// read.
func DefaultConfig() Config {
	return Config{
		PageCacheSize:    4096,
		NodeGroupSize:    1 << 20,
		PreferBitpacking: true,
	}
}

// LoadConfig reads `<dbDir>/graphcore.json` if present, applying it over
// DefaultConfig(); a missing file is not an error (spec.md's config
// layer is additive, matching the teacher's "absent config file falls
// through to defaults" behavior).
func LoadConfig(dbDir string) (Config, error) {
	cfg := DefaultConfig()

	path := filepath.Join(dbDir, ConfigFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("database: read config: %w", err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("database: parse config %s: %w", path, err)
	}

	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return Config{}, fmt.Errorf("database: decode config %s: %w", path, err)
	}

	return cfg, nil
}
