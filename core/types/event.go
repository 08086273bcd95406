package types

// Event is a typed record of a state change, carrying string attributes so it
// can be forwarded to logs, RPC subscribers or indexers without re-encoding.
type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}
