// Package ranking scores, orders, and paginates filtered service documents.
package ranking

// RankingConfig holds the relevance weights for the scoring system.
//
// The field weights are ordered so that a name match always outranks a
// match found only in a less specific field:
// name > intro > description >= taxonomy_names > organisation_name.
type RankingConfig struct {
	NameWeight             float64 `yaml:"name_weight"`              // default: 4.0
	IntroWeight            float64 `yaml:"intro_weight"`             // default: 3.0
	DescriptionWeight      float64 `yaml:"description_weight"`       // default: 2.0
	TaxonomyNameWeight     float64 `yaml:"taxonomy_name_weight"`     // default: 2.0
	OrganisationNameWeight float64 `yaml:"organisation_name_weight"` // default: 1.0

	// TaxonomyOverlapBoost is added once per taxonomy shared between the
	// document and an active category/persona filter.
	TaxonomyOverlapBoost float64 `yaml:"taxonomy_overlap_boost"` // default: 1.5
}

// DefaultRankingConfig returns the default ranking configuration.
func DefaultRankingConfig() *RankingConfig {
	return &RankingConfig{
		NameWeight:             4.0,
		IntroWeight:            3.0,
		DescriptionWeight:      2.0,
		TaxonomyNameWeight:     2.0,
		OrganisationNameWeight: 1.0,
		TaxonomyOverlapBoost:   1.5,
	}
}

// ApplyDefaults fills in zero values with defaults.
func (c *RankingConfig) ApplyDefaults() {
	defaults := DefaultRankingConfig()

	if c.NameWeight == 0 {
		c.NameWeight = defaults.NameWeight
	}
	if c.IntroWeight == 0 {
		c.IntroWeight = defaults.IntroWeight
	}
	if c.DescriptionWeight == 0 {
		c.DescriptionWeight = defaults.DescriptionWeight
	}
	if c.TaxonomyNameWeight == 0 {
		c.TaxonomyNameWeight = defaults.TaxonomyNameWeight
	}
	if c.OrganisationNameWeight == 0 {
		c.OrganisationNameWeight = defaults.OrganisationNameWeight
	}
	if c.TaxonomyOverlapBoost == 0 {
		c.TaxonomyOverlapBoost = defaults.TaxonomyOverlapBoost
	}
}
