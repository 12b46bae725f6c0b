// internal/noise/filter_test.go
package noise

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mentionscope/internal/actors"
	"mentionscope/internal/common/config"
	"mentionscope/internal/models"
)

func testBusiness() config.BusinessConfig {
	return config.BusinessConfig{
		Principal: config.ActorEntry{Name: "Acme Bank", Aliases: []string{"acme"}},
		Actors: []config.ActorEntry{
			{Name: "Globex", Aliases: []string{"globexbank"}},
			{Name: "BCP", Aliases: nil}, // ambiguous acronym, guarded below
		},
		Geographies: []config.GeoEntry{
			{Name: "Chile", AllowedActors: []string{"Acme Bank"}},
			{Name: "Peru"},
		},
		Sources: map[string]config.SourceEntry{
			"news":    {Enabled: true, ActorRequired: true, ContextRequired: true},
			"reviews": {Enabled: true},
		},
		Vocabulary: config.VocabularyEntry{
			ContextTerms: []string{"banco", "banking", "cuenta"},
			NoiseTerms:   []string{"sorteo", "giveaway"},
			GuardActors:  []string{"BCP"},
		},
	}
}

func newFilter() *Filter {
	biz := testBusiness()
	return New(biz, actors.New(biz))
}

func TestActorRequired(t *testing.T) {
	f := newFilter()

	kept, drops := f.Apply([]models.Mention{
		{ID: "1", Source: "news", Title: "banking news roundup"}, // no actor at all
		{ID: "2", Source: "news", Actor: "Acme Bank", Title: "acme banking outage"},
		{ID: "3", Source: "reviews", Title: "great app"}, // rule does not apply
	})

	require.Len(t, kept, 2)
	assert.Equal(t, 1, drops[RuleMissingActor])
}

func TestActorMustAppearInText(t *testing.T) {
	f := newFilter()

	kept, drops := f.Apply([]models.Mention{
		// Attributed to Acme but the text never names it.
		{ID: "1", Source: "news", Actor: "Acme Bank", Title: "banking fees rise across the region"},
		// Alias in text is enough.
		{ID: "2", Source: "news", Actor: "Acme Bank", Title: "acme banking fees rise"},
	})

	require.Len(t, kept, 1)
	assert.Equal(t, "2", kept[0].ID)
	assert.Equal(t, 1, drops[RuleActorNotInText])
}

func TestContextRequired(t *testing.T) {
	f := newFilter()

	kept, drops := f.Apply([]models.Mention{
		{ID: "1", Source: "news", Actor: "Globex", Title: "globex sponsors a football match"},
		{ID: "2", Source: "news", Actor: "Globex", Title: "globex banking app outage"},
	})

	require.Len(t, kept, 1)
	assert.Equal(t, "2", kept[0].ID)
	assert.Equal(t, 1, drops[RuleMissingContext])
}

func TestGeoAllowListDropsRecognizedActorsOnly(t *testing.T) {
	f := newFilter()

	kept, drops := f.Apply([]models.Mention{
		// Globex is a recognized actor but not allow-listed for Chile.
		{ID: "1", Source: "reviews", Actor: "Globex", Geo: "Chile", Title: "globex banco"},
		// Unknown actors pass through unfiltered.
		{ID: "2", Source: "reviews", Actor: "Wayne Enterprises", Geo: "Chile", Title: "wayne banco"},
		// Peru has no allow-list.
		{ID: "3", Source: "reviews", Actor: "Globex", Geo: "Peru", Title: "globex banco"},
	})

	require.Len(t, kept, 2)
	assert.Equal(t, 1, drops[RuleGeoNotAllowed])
}

func TestGuardActorNeedsContext(t *testing.T) {
	f := newFilter()

	kept, drops := f.Apply([]models.Mention{
		{ID: "1", Source: "reviews", Actor: "BCP", Title: "BCP wins the chess tournament"},
		{ID: "2", Source: "reviews", Actor: "BCP", Title: "BCP banco app falla la cuenta"},
	})

	require.Len(t, kept, 1)
	assert.Equal(t, "2", kept[0].ID)
	assert.Equal(t, 1, drops[RuleGuardedActor])
}

func TestNoiseTermContextOverride(t *testing.T) {
	f := newFilter()

	kept, drops := f.Apply([]models.Mention{
		{ID: "1", Source: "reviews", Title: "participa en el sorteo del año"},
		// Context always overrides noise: kept despite the noise phrase.
		{ID: "2", Source: "reviews", Title: "sorteo del banco para clientes con cuenta"},
	})

	require.Len(t, kept, 1)
	assert.Equal(t, "2", kept[0].ID)
	assert.Equal(t, 1, drops[RuleNoiseTerm])
}

func TestNote(t *testing.T) {
	assert.Empty(t, Note(nil))
	assert.Equal(t, "filtered: missing_actor=2 noise_term=1",
		Note(map[string]int{"noise_term": 1, "missing_actor": 2}))
}
