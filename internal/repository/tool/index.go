package tool

import "github.com/kailas-cloud/toolsage/internal/db"

// Indexed field aliases.
const (
	fieldName        = "name"
	fieldDescription = "description"
	fieldTagsText    = "tags_text"
	fieldUseCases    = "use_cases"
	fieldType        = "type"
	fieldPricing     = "pricing"
	fieldTags        = "tags"
	fieldCategories  = "categories"
)

// keywordFields are the TEXT fields one fuzzy keyword query spans.
var keywordFields = []string{fieldName, fieldDescription, fieldTagsText, fieldUseCases}

// HNSWConfig holds HNSW index parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

func buildIndex(name, keyPrefix string, dim int, hnsw HNSWConfig) (*db.IndexDefinition, error) {
	return db.NewIndex(name).OnJSON().Prefix(keyPrefix).
		Text("$.name").As(fieldName).Weight(2).
		Text("$.description").As(fieldDescription).
		Text("$.tags_text").As(fieldTagsText).
		Text("$.use_cases_text").As(fieldUseCases).Weight(0.5).
		Tag("$.type").As(fieldType).
		Tag("$.pricing").As(fieldPricing).
		Tag("$.tags[*]").As(fieldTags).
		Tag("$.categories[*]").As(fieldCategories).
		VectorHNSW("$.embedding", dim, db.DistanceCosine, hnsw.M, hnsw.EFConstruct).As("vector").
		Build()
}
