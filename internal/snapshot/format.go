package snapshot

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format identifies a snapshot encoding.
type Format string

const (
	FormatJSON   Format = "json"
	FormatTOML   Format = "toml"
	FormatYAML   Format = "yaml"
	FormatSQLite Format = "sqlite"
)

// FormatForPath picks the format from the file extension. Paths without an
// extension are JSON.
func FormatForPath(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json", "":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite, nil
	default:
		return "", fmt.Errorf("unsupported snapshot extension %q (want .json, .toml, .yaml, .yml, .db, .sqlite)", ext)
	}
}
