package table

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Options controls how file sources are read into a Table.
type Options struct {
	// MaxRows limits rows loaded; 0 means unlimited.
	MaxRows int
	// Delimiter for CSV. If 0, picked from the file extension (',' or '\t').
	Delimiter rune
	// DecimalSeparator for numeric cells. If 0, auto-detect per value.
	DecimalSeparator rune
	// SheetName selects an XLSX sheet; SheetIndex (1-based) is used when empty.
	SheetName  string
	SheetIndex int
}

// Loader reads one file format into a Table.
type Loader interface {
	CanLoad(filename string) bool
	Load(path string, opt Options) (*Table, error)
}

var registry []Loader

// Register adds a loader implementation to the registry.
func Register(l Loader) {
	registry = append(registry, l)
}

// ErrUnsupported indicates no registered loader accepts the file.
var ErrUnsupported = errors.New("unsupported table format")

// LoadFile selects a loader based on filename and reads the file.
func LoadFile(path string, opt Options) (*Table, error) {
	for _, l := range registry {
		if l.CanLoad(path) {
			return l.Load(path, opt)
		}
	}
	return nil, fmt.Errorf("%w: %s (expected .csv, .tsv, .txt or .xlsx)", ErrUnsupported, filepath.Base(path))
}

// Supported reports whether some loader accepts the file name.
func Supported(path string) bool {
	for _, l := range registry {
		if l.CanLoad(path) {
			return true
		}
	}
	return false
}

func init() {
	Register(csvLoader{})
	Register(xlsxLoader{})
}

func baseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
