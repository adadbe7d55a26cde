package profile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Encoding is a profile file encoding.
type Encoding string

// Supported encodings.
const (
	JSON Encoding = "json"
	YAML Encoding = "yaml"
	TOML Encoding = "toml"
)

// ErrUnknownEncoding is returned for unsupported file extensions.
var ErrUnknownEncoding = errors.New("unknown profile encoding")

// EncodingFor picks the encoding from a file extension.
func EncodingFor(path string) (Encoding, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return JSON, nil
	case ".yaml", ".yml":
		return YAML, nil
	case ".toml":
		return TOML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownEncoding, filepath.Ext(path))
	}
}

// Decode parses a profile document. YAML and TOML documents are first
// normalized to JSON so every encoding goes through the same
// unknown-key-preserving decoder.
func Decode(data []byte, enc Encoding) (Settings, error) {
	doc, err := ToJSON(data, enc)
	if err != nil {
		return Settings{}, err
	}
	var s Settings
	if err := json.Unmarshal(doc, &s); err != nil {
		return Settings{}, fmt.Errorf("decode profile: %w", err)
	}
	return s, nil
}

// ToJSON converts a document in the given encoding to JSON without
// interpreting it.
func ToJSON(data []byte, enc Encoding) ([]byte, error) {
	switch enc {
	case JSON:
		if !json.Valid(data) {
			return nil, fmt.Errorf("decode profile: invalid JSON")
		}
		return data, nil
	case YAML:
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode profile yaml: %w", err)
		}
		if doc == nil {
			doc = map[string]any{}
		}
		norm, err := normalizeYAML(doc)
		if err != nil {
			return nil, err
		}
		return json.Marshal(norm)
	case TOML:
		var doc map[string]any
		if err := toml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode profile toml: %w", err)
		}
		if doc == nil {
			doc = map[string]any{}
		}
		return json.Marshal(doc)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, enc)
	}
}

// Encode renders a profile in the given encoding.
func Encode(s Settings, enc Encoding) ([]byte, error) {
	doc, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode profile: %w", err)
	}

	switch enc {
	case JSON:
		var buf bytes.Buffer
		if err := json.Indent(&buf, doc, "", "  "); err != nil {
			return nil, err
		}
		buf.WriteByte('\n')
		return buf.Bytes(), nil
	case YAML, TOML:
		var generic map[string]any
		if err := json.Unmarshal(doc, &generic); err != nil {
			return nil, err
		}
		if enc == YAML {
			return yaml.Marshal(generic)
		}
		return toml.Marshal(dropNulls(generic))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, enc)
	}
}

// LoadFile reads and decodes a profile file, choosing the encoding from its
// extension.
func LoadFile(path string) (Settings, error) {
	enc, err := EncodingFor(path)
	if err != nil {
		return Settings{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("read profile: %w", err)
	}
	s, err := Decode(data, enc)
	if err != nil {
		return Settings{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// WriteFile encodes s and writes it to path.
func WriteFile(path string, s Settings) error {
	enc, err := EncodingFor(path)
	if err != nil {
		return err
	}
	data, err := Encode(s, enc)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// normalizeYAML turns map[any]any nodes into map[string]any so the document
// can be re-encoded as JSON.
func normalizeYAML(v any) (any, error) {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			n, err := normalizeYAML(val)
			if err != nil {
				return nil, err
			}
			out[k] = n
		}
		return out, nil
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			ks, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("decode profile yaml: non-string key %v", k)
			}
			n, err := normalizeYAML(val)
			if err != nil {
				return nil, err
			}
			out[ks] = n
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			n, err := normalizeYAML(val)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	default:
		return v, nil
	}
}

// dropNulls removes nil values, which TOML cannot represent.
func dropNulls(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if val == nil {
				continue
			}
			out[k] = dropNulls(val)
		}
		return out
	case []any:
		out := make([]any, 0, len(t))
		for _, val := range t {
			if val == nil {
				continue
			}
			out = append(out, dropNulls(val))
		}
		return out
	default:
		return v
	}
}
