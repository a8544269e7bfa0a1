package resource

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// readFileFunc is swapped out in tests to count or fail reads.
type readFileFunc func(path string) ([]byte, error)

var osReadFile readFileFunc = os.ReadFile

// decodeFile reads path and unmarshals it into out. YAML is used for
// .yaml/.yml files, JSON for everything else.
func decodeFile(read readFileFunc, path string, out interface{}) error {
	if read == nil {
		read = osReadFile
	}
	raw, err := read(path)
	if err != nil {
		return fmt.Errorf("%w: read %s: %w", ErrDataSourceUnavailable, path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, out)
	default:
		err = json.Unmarshal(raw, out)
	}
	if err != nil {
		return fmt.Errorf("%w: parse %s: %w", ErrMalformedData, path, err)
	}
	return nil
}

// foldKey normalises a name for case-insensitive lookups.
// A Caser keeps state, so a fresh one is built per call.
func foldKey(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// slug mirrors the id scheme used by the material sheets: lowercase, runs of
// whitespace replaced with '_'.
func slug(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), "_"))
}
