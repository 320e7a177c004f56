package models

// Filter is an equality predicate on a dataset column.
type Filter struct {
	Field string
	Value string
}

// CountQuery asks the backend to count events in Dataset matching all
// Filters.
type CountQuery struct {
	Dataset string
	Filters []Filter
}

// QueryResult mirrors the backend response envelope:
// { buckets: { totals: [ { aggregations: [ { op, value } ] } ] } }
type QueryResult struct {
	Buckets Buckets `json:"buckets"`
}

type Buckets struct {
	Totals []Total `json:"totals"`
}

type Total struct {
	Aggregations []Aggregation `json:"aggregations"`
}

type Aggregation struct {
	Op    string `json:"op"`
	Value any    `json:"value"`
}

// CountResult wraps a single count() aggregate in the envelope.
func CountResult(n any) *QueryResult {
	return &QueryResult{Buckets: Buckets{Totals: []Total{{
		Aggregations: []Aggregation{{Op: "count", Value: n}},
	}}}}
}
