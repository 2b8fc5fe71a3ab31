package cache

// Keyer generates cache keys. Implementations must be deterministic: the
// same inputs always give the same key.
type Keyer interface {
	// GraphKey returns the key of a unified graph built from sources whose
	// content is summarized by digest.
	GraphKey(digest string) string

	// QueryKey returns the key of a query response against the graph
	// identified by graphDigest.
	QueryKey(graphDigest string, opts QueryKeyOpts) string
}

// QueryKeyOpts are the query parameters that change a response.
type QueryKeyOpts struct {
	Op       string   `json:"op"`
	Codes    []string `json:"codes"`
	MaxDepth int      `json:"max_depth"`
	Strategy string   `json:"strategy,omitempty"`
	Limit    int      `json:"limit,omitempty"`
	Shape    string   `json:"shape"`
}

// DefaultKeyer produces "graph:<hash>" and "query:<hash>" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default key layout.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// GraphKey implements Keyer.
func (DefaultKeyer) GraphKey(digest string) string {
	return hashKey("graph", digest)
}

// QueryKey implements Keyer.
func (DefaultKeyer) QueryKey(graphDigest string, opts QueryKeyOpts) string {
	return hashKey("query", graphDigest, opts)
}
