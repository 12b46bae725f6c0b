// internal/common/validation/schema_test.go
package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateProfileAccepts(t *testing.T) {
	raw := []byte(`
principal:
  name: Acme Bank
  aliases: [acme]
actors:
  - name: Globex
    geos: [Chile]
sources:
  news:
    enabled: true
    actor_required: true
  app_store:
    enabled: true
    store_kind: app
balancer:
  min_per_geo: 40
`)
	assert.NoError(t, ValidateProfile("profile.yaml", raw))
}

func TestValidateProfileRejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"actor without name", "actors:\n  - aliases: [x]\n"},
		{"bad store kind", "sources:\n  reviews:\n    store_kind: windows\n"},
		{"negative balancer floor", "balancer:\n  min_per_geo: -1\n"},
		{"empty document", ""},
		{"not yaml", ":\n -\t["},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, ValidateProfile("profile.yaml", []byte(tt.raw)))
		})
	}
}
