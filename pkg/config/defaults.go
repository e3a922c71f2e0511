package config

const (
	defaultStorageProvider = "memory"
	defaultAPIListen       = ":8082"

	defaultIngestBrokers = "localhost:9092"
	defaultIngestTopic   = "conversations.closed"
	defaultIngestGroupID = "memline"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Storage: StorageConfig{
			Provider: defaultStorageProvider,
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		MCP: MCPConfig{
			Enabled: true,
		},
		Ingest: IngestConfig{
			Enabled: false,
			Brokers: defaultIngestBrokers,
			Topic:   defaultIngestTopic,
			GroupID: defaultIngestGroupID,
		},
	}
}
