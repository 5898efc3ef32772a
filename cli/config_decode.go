package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"
	ini "gopkg.in/ini.v1"
)

// DecodeResult contains metadata from the decoding process
type DecodeResult struct {
	// UsedKeys contains all keys that were present in the input
	UsedKeys map[string]bool

	// UnusedKeys contains keys that were in input but not matched to struct fields
	UnusedKeys []string
}

// decodeWithMetadata decodes input into output while tracking key metadata,
// so typos in a profile surface as unknown keys.
func decodeWithMetadata(input map[string]any, output any) (*DecodeResult, error) {
	var metadata mapstructure.Metadata

	config := &mapstructure.DecoderConfig{
		Result:           output,
		Metadata:         &metadata,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
		MatchName:        caseInsensitiveMatch,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
		),
	}

	decoder, err := mapstructure.NewDecoder(config)
	if err != nil {
		return nil, fmt.Errorf("create decoder: %w", err)
	}

	if err := decoder.Decode(input); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	result := &DecodeResult{
		UsedKeys:   make(map[string]bool),
		UnusedKeys: metadata.Unused,
	}
	sort.Strings(result.UnusedKeys)

	for _, key := range metadata.Keys {
		result.UsedKeys[normalizeKey(key)] = true
	}

	return result, nil
}

// caseInsensitiveMatch matches map keys to struct fields case-insensitively
func caseInsensitiveMatch(mapKey, fieldName string) bool {
	return strings.EqualFold(normalizeKey(mapKey), normalizeKey(fieldName))
}

// normalizeKey normalizes a configuration key for comparison
// Handles both kebab-case (config files) and underscores (mapstructure tags)
func normalizeKey(key string) string {
	k := strings.ToLower(key)
	k = strings.ReplaceAll(k, "-", "")
	k = strings.ReplaceAll(k, "_", "")
	return k
}

// sectionToMap flattens an ini section. Shadowed keys become string slices.
func sectionToMap(section *ini.Section) map[string]any {
	m := make(map[string]any)
	for _, key := range section.Keys() {
		vals := key.ValueWithShadows()
		switch len(vals) {
		case 0:
			m[key.Name()] = ""
		case 1:
			m[key.Name()] = vals[0]
		default:
			cp := make([]string, len(vals))
			copy(cp, vals)
			m[key.Name()] = cp
		}
	}
	return m
}

// parseSectionName splits `step "name"` into its kind and quoted name.
func parseSectionName(section string) (kind, name string) {
	section = strings.TrimSpace(section)
	kind, rest, found := strings.Cut(section, " ")
	if !found {
		return section, ""
	}
	rest = strings.TrimSpace(rest)
	return kind, strings.Trim(rest, "\"")
}
