package msgcore

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// LogFunc is the level-gated logging callback threaded through the
// driver and scanner configs, mirroring the teacher's HALConfig.LogFunc.
type LogFunc func(level int, format string, args ...interface{})

// FileConfig is the driver's one piece of textual configuration: which
// command database and lookup-table files to load for a session. Plugin
// and per-game loading are out of scope; this just names two paths.
type FileConfig struct {
	CommandDatabase string `toml:"command_database"`
	LookupTable     string `toml:"lookup_table"`
}

// LoadFileConfig reads a FileConfig from a TOML file at path.
func LoadFileConfig(path string) (*FileConfig, error) {
	var fc FileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: config file %q not found", ErrInvalidInput, path)
		}
		return nil, fmt.Errorf("%w: parsing config file %q: %v", ErrFormat, path, err)
	}
	if fc.CommandDatabase == "" {
		return nil, fmt.Errorf("%w: config file %q missing command_database", ErrInvalidInput, path)
	}
	return &fc, nil
}

// EntryIndexConfig controls how the driver persists its ROM/file entry
// index alongside a loaded archive source.
type EntryIndexConfig struct {
	// Path is where the index is loaded from and saved to. Empty means
	// the driver keeps an in-memory index only.
	Path string
	// UpdateOnScan enables writing newly discovered entries back, per
	// spec §4.6 step 8.
	UpdateOnScan bool
}

// DriverConfig configures a Driver, mirroring the teacher's HALConfig
// shape: plain fields, an optional LogFunc, no hidden defaults resolved
// by a config file (that's FileConfig's job, one layer up, in the CLI).
type DriverConfig struct {
	Scanner    ScannerConfig
	EntryIndex EntryIndexConfig
	LogFunc    LogFunc
}
