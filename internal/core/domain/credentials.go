package domain

// Dialect selects which generation of the gateway API a call uses.
type Dialect string

const (
	// DialectNew is the token-based API (client-credentials bearer token).
	DialectNew Dialect = "new"
	// DialectLegacy is the shared-secret header API.
	DialectLegacy Dialect = "legacy"
)

// Credentials is an immutable snapshot of gateway credentials. It is a plain
// value struct so snapshots can be compared with == to detect rotation.
type Credentials struct {
	ClientID     string
	ClientSecret string
	BaseURL      string

	// Legacy shared-secret credentials.
	APISecret     string
	StoreKey      string
	LegacyBaseURL string
}

// Mode returns the dialect these credentials select: new iff both client id
// and client secret resolved non-empty.
func (c Credentials) Mode() Dialect {
	if c.ClientID != "" && c.ClientSecret != "" {
		return DialectNew
	}
	return DialectLegacy
}

// Host returns the base URL for the active dialect.
func (c Credentials) Host() string {
	if c.Mode() == DialectNew {
		return c.BaseURL
	}
	return c.LegacyBaseURL
}
