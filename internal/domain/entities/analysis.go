package entities

// QueryType classifies what kind of answer a natural-language question expects.
type QueryType string

const (
	QueryTypeRetrieve  QueryType = "retrieve"
	QueryTypeCount     QueryType = "count"
	QueryTypeAggregate QueryType = "aggregate"
	QueryTypeAverage   QueryType = "average"
	QueryTypeMaximum   QueryType = "maximum"
	QueryTypeMinimum   QueryType = "minimum"
	QueryTypeUnknown   QueryType = "unknown"
)

// AnalysisResult is the structured interpretation of a natural-language
// analytics question. It is built once by the intent classifier and consumed
// read-only by the query synthesizer and the response formatter.
type AnalysisResult struct {
	OriginalQuery  string            `json:"original_query"`
	QueryType      QueryType         `json:"query_type"`
	Entities       []string          `json:"entities"`
	Filters        map[string]string `json:"filters"`
	TimeReferences []string          `json:"time_references"`

	// Limit is the requested row cap. nil means the caller asked for
	// everything ("all", "everything") and no LIMIT clause applies.
	Limit *int `json:"limit"`
}

// PrimaryEntity returns the first detected entity, or the given default when
// none was detected.
func (a *AnalysisResult) PrimaryEntity(defaultEntity string) string {
	if len(a.Entities) == 0 {
		return defaultEntity
	}
	return a.Entities[0]
}

// HasTimeReference reports whether the given time tag was detected.
func (a *AnalysisResult) HasTimeReference(tag string) bool {
	for _, ref := range a.TimeReferences {
		if ref == tag {
			return true
		}
	}
	return false
}
