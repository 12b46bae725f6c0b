// internal/common/validation/schema.go
package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// profileSchema constrains business profile documents. Profiles are merged
// by the config loader; structurally invalid entries fail fast here rather
// than being silently ignored at use time.
const profileSchema = `{
  "type": "object",
  "properties": {
    "principal": {"$ref": "#/definitions/actor"},
    "actors": {"type": "array", "items": {"$ref": "#/definitions/actor"}},
    "aliases": {
      "type": "object",
      "additionalProperties": {"type": "array", "items": {"type": "string", "minLength": 1}}
    },
    "geographies": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "aliases": {"type": "array", "items": {"type": "string", "minLength": 1}},
          "domains": {"type": "array", "items": {"type": "string", "minLength": 1}},
          "allowed_actors": {"type": "array", "items": {"type": "string", "minLength": 1}}
        },
        "required": ["name"]
      }
    },
    "sources": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "properties": {
          "enabled": {"type": "boolean"},
          "actor_required": {"type": "boolean"},
          "context_required": {"type": "boolean"},
          "supports_query": {"type": "boolean"},
          "store_kind": {"type": "string", "enum": ["", "app", "play"]},
          "always_negative": {"type": "boolean"}
        }
      }
    },
    "app_actors": {"type": "object", "additionalProperties": {"type": "string", "minLength": 1}},
    "package_actors": {"type": "object", "additionalProperties": {"type": "string", "minLength": 1}},
    "vocabulary": {"type": "object"},
    "balancer": {
      "type": "object",
      "properties": {
        "min_per_geo": {"type": "integer", "minimum": 0},
        "min_per_actor": {"type": "integer", "minimum": 0},
        "max_passes": {"type": "integer", "minimum": 0},
        "max_queries_per_pass": {"type": "integer", "minimum": 0},
        "max_per_source": {"type": "integer", "minimum": 0}
      }
    },
    "query_templates": {"type": "array", "items": {"type": "string", "minLength": 1}},
    "lookback_days": {"type": "integer", "minimum": 1}
  },
  "definitions": {
    "actor": {
      "type": "object",
      "properties": {
        "name": {"type": "string", "minLength": 1},
        "aliases": {"type": "array", "items": {"type": "string", "minLength": 1}},
        "geos": {"type": "array", "items": {"type": "string", "minLength": 1}}
      },
      "required": ["name"]
    }
  }
}`

// ValidateProfile checks one business profile document (YAML) against the
// profile schema, returning a joined message of every violation.
func ValidateProfile(path string, raw []byte) error {
	var doc map[string]interface{}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("profile %s is not valid YAML: %w", path, err)
	}
	if doc == nil {
		return fmt.Errorf("profile %s is empty", path)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(profileSchema),
		gojsonschema.NewGoLoader(doc),
	)
	if err != nil {
		return fmt.Errorf("profile %s validation error: %w", path, err)
	}

	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("profile %s failed validation: %s", path, strings.Join(msgs, "; "))
	}

	return nil
}
