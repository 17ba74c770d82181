package baseline

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/temirov/gitm/internal/snapshot"
)

// Format names a baseline serialization.
type Format string

// Supported serializations.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

const (
	statusKeyConstant              = "status"
	jsonIndentConstant             = "    "
	yamlIndentWidthConstant        = 2
	yamlExtensionConstant          = ".yaml"
	ymlExtensionConstant           = ".yml"
	malformedEntryTemplateConstant = "entry %q: %w"
)

var (
	errMissingStatus   = errors.New("document has no status mapping")
	errMalformedStatus = errors.New("status is not a mapping")
)

// FormatForLocation chooses the serialization from a file extension, defaulting to JSON.
func FormatForLocation(location string) Format {
	switch strings.ToLower(filepath.Ext(location)) {
	case yamlExtensionConstant, ymlExtensionConstant:
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Encode writes the baseline document in the requested serialization.
func Encode(writer io.Writer, baseline *snapshot.Baseline, format Format) error {
	persisted := document{Status: make(map[string]record, baseline.Len())}
	for _, checkoutPath := range baseline.Paths() {
		entry, _ := baseline.Lookup(checkoutPath)
		persisted.Status[checkoutPath] = recordFromEntry(entry)
	}

	switch format {
	case FormatYAML:
		encoder := yaml.NewEncoder(writer)
		encoder.SetIndent(yamlIndentWidthConstant)
		if encodeError := encoder.Encode(persisted); encodeError != nil {
			return encodeError
		}
		return encoder.Close()
	default:
		encoder := json.NewEncoder(writer)
		encoder.SetIndent("", jsonIndentConstant)
		encoder.SetEscapeHTML(false)
		return encoder.Encode(persisted)
	}
}

// Decode parses a baseline document. Any structural problem fails the whole document.
func Decode(contents []byte, format Format) (*snapshot.Baseline, error) {
	var rawDocument map[string]any
	switch format {
	case FormatYAML:
		if decodeError := yaml.Unmarshal(contents, &rawDocument); decodeError != nil {
			return nil, decodeError
		}
	default:
		decoder := json.NewDecoder(bytes.NewReader(contents))
		decoder.UseNumber()
		if decodeError := decoder.Decode(&rawDocument); decodeError != nil {
			return nil, decodeError
		}
	}

	rawStatus, hasStatus := rawDocument[statusKeyConstant]
	if !hasStatus {
		return nil, errMissingStatus
	}
	baseline := snapshot.NewBaseline()
	if rawStatus == nil {
		return baseline, nil
	}
	statusEntries, isMapping := normalizeMapping(rawStatus)
	if !isMapping {
		return nil, errMalformedStatus
	}
	for checkoutPath, rawEntry := range statusEntries {
		persisted, recordError := decodeRecord(rawEntry)
		if recordError != nil {
			return nil, fmt.Errorf(malformedEntryTemplateConstant, checkoutPath, recordError)
		}
		entry, entryError := entryFromRecord(checkoutPath, persisted)
		if entryError != nil {
			return nil, fmt.Errorf(malformedEntryTemplateConstant, checkoutPath, entryError)
		}
		baseline.Set(checkoutPath, entry)
	}
	return baseline, nil
}

// normalizeMapping accepts the two mapping shapes a YAML parser produces.
func normalizeMapping(value any) (map[string]any, bool) {
	switch mapping := value.(type) {
	case map[string]any:
		return mapping, true
	case map[any]any:
		normalized := make(map[string]any, len(mapping))
		for key, entry := range mapping {
			normalized[fmt.Sprint(key)] = entry
		}
		return normalized, true
	default:
		return nil, false
	}
}
