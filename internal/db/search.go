package db

// KNNQuery is the input for pure vector similarity search.
type KNNQuery struct {
	IndexName    string
	Vector       []float32
	K            int
	ReturnFields []string
}

// HybridQuery is the input for entity-gated vector search: a lexical
// match on EntityText gates the candidate set, cosine similarity to
// Vector ranks within the gate.
type HybridQuery struct {
	IndexName    string
	EntityText   string
	Vector       []float32
	K            int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
