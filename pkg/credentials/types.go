package credentials

// Credentials is the contents of .alembic/credentials.toml, written by
// alembic auth and read when the generator resolves its API key.
type Credentials struct {
	Version int `toml:"version"`

	// Providers is keyed by generator provider name (gemini, openai, anthropic).
	Providers map[string]ProviderCredential `toml:"providers"`
}

// ProviderCredential is one provider's stored key.
type ProviderCredential struct {
	APIKey string `toml:"api_key"`
}
