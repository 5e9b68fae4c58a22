package services

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/rewardops/pangea-analytics/backend/internal/domain/entities"
)

// typeRule binds a keyword set to the query type it implies.
type typeRule struct {
	keywords  []string
	queryType entities.QueryType
}

// typeRules are evaluated top to bottom; the first rule with any matching
// keyword wins and later rules are not consulted. Retrieve sits last so that
// a question like "show me total revenue" reads as an aggregate, not a plain
// retrieval.
var typeRules = []typeRule{
	{[]string{"count", "how many", "number of"}, entities.QueryTypeCount},
	{[]string{"total", "sum", "revenue", "amount"}, entities.QueryTypeAggregate},
	{[]string{"average", "avg", "mean"}, entities.QueryTypeAverage},
	{[]string{"max", "maximum", "highest", "largest"}, entities.QueryTypeMaximum},
	{[]string{"min", "minimum", "lowest", "smallest"}, entities.QueryTypeMinimum},
	{[]string{"show", "display", "get", "find", "list"}, entities.QueryTypeRetrieve},
}

// entityRules are all tested independently; every match appends its entity,
// so "orders for a member" yields both orders and members, in rule order.
var entityRules = []struct {
	keywords []string
	entity   string
}{
	{[]string{"order", "orders", "purchase", "transaction"}, "orders"},
	{[]string{"customer", "member", "user", "client"}, "members"},
	{[]string{"program", "programs", "campaign"}, "programs"},
}

// timeRules are independent like entity rules; a question can carry several
// time tags at once ("last orders from yesterday" → latest + recent).
var timeRules = []struct {
	keywords []string
	tag      string
}{
	{[]string{"today", "yesterday", "last week", "this month"}, "recent"},
	{[]string{"last", "latest", "recent", "newest"}, "latest"},
	{[]string{"first", "oldest", "earliest"}, "earliest"},
}

var unboundedKeywords = []string{"all", "everything"}

var digitRun = regexp.MustCompile(`\b(\d+)\b`)

// IntentClassifier turns a raw natural-language question into an
// AnalysisResult using ordered keyword-rule tables. Classification is a pure
// function of the lower-cased, trimmed input and never fails; the worst case
// is an unknown query type with no detected entities.
type IntentClassifier struct {
	defaultLimit int
}

// NewIntentClassifier creates a classifier. defaultLimit is applied when the
// question names no row count and does not ask for everything.
func NewIntentClassifier(defaultLimit int) *IntentClassifier {
	return &IntentClassifier{defaultLimit: defaultLimit}
}

// Classify analyzes a natural-language question and extracts query type,
// target entities, filters, time references and the requested row limit.
func (c *IntentClassifier) Classify(text string) *entities.AnalysisResult {
	q := strings.ToLower(strings.TrimSpace(text))

	analysis := &entities.AnalysisResult{
		OriginalQuery:  text,
		QueryType:      entities.QueryTypeUnknown,
		Entities:       []string{},
		Filters:        map[string]string{},
		TimeReferences: []string{},
	}

	for _, rule := range typeRules {
		if containsAny(q, rule.keywords) {
			analysis.QueryType = rule.queryType
			break
		}
	}

	for _, rule := range entityRules {
		if containsAny(q, rule.keywords) {
			analysis.Entities = append(analysis.Entities, rule.entity)
		}
	}

	for _, rule := range timeRules {
		if containsAny(q, rule.keywords) {
			analysis.TimeReferences = append(analysis.TimeReferences, rule.tag)
		}
	}

	c.detectFilters(q, analysis.Filters)
	analysis.Limit = c.detectLimit(q)

	return analysis
}

// detectFilters applies the status-filter substring tests. At most one value
// per field; when several substrings hit the same field the last write wins.
func (c *IntentClassifier) detectFilters(q string, filters map[string]string) {
	if strings.Contains(q, "paid") {
		filters["payment_status"] = "PAID"
	}
	if strings.Contains(q, "pending") {
		// "pending" alone is ambiguous between the two status columns and
		// sets nothing without a disambiguating co-occurrence.
		if strings.Contains(q, "payment") {
			filters["payment_status"] = "PENDING"
		} else if strings.Contains(q, "fulfillment") {
			filters["fulfillment_status"] = "PENDING"
		}
	}
	if strings.Contains(q, "fulfilled") {
		filters["fulfillment_status"] = "FULFILLED"
	}
}

// detectLimit extracts the requested row cap: the first digit run anywhere in
// the text wins, "all"/"everything" means unbounded (nil), otherwise the
// configured default applies. Known quirk, kept on purpose: a year in the
// text ("orders from 2024") is read as a limit of 2024.
func (c *IntentClassifier) detectLimit(q string) *int {
	if match := digitRun.FindString(q); match != "" {
		if n, err := strconv.Atoi(match); err == nil {
			return &n
		}
	}
	if containsAny(q, unboundedKeywords) {
		return nil
	}
	limit := c.defaultLimit
	return &limit
}

func containsAny(q string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(q, kw) {
			return true
		}
	}
	return false
}
