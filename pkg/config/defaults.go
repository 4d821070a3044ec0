package config

const (
	defaultStorageProvider = "sqlite"
	defaultAPIListen       = ":8080"

	defaultGeneratorProvider = "gemini"
	defaultGeneratorTimeout  = 30

	defaultCollisionThreshold = 60
	defaultRollbackOffset     = 30
	defaultNarrowViewport     = 768
	defaultWorkers            = 3
	defaultQueueSize          = 64

	defaultEventsProvider = "nop"
	defaultEventsTopic    = "alembic.combinations"
	defaultFeedSize       = 50

	defaultClientAPITarget = "http://localhost:8080"
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
		Generator: GeneratorConfig{
			Provider:       defaultGeneratorProvider,
			TimeoutSeconds: defaultGeneratorTimeout,
		},
		Workspace: WorkspaceConfig{
			CollisionThreshold: defaultCollisionThreshold,
			RollbackOffset:     defaultRollbackOffset,
			NarrowViewport:     defaultNarrowViewport,
			Workers:            defaultWorkers,
			QueueSize:          defaultQueueSize,
		},
		Events: EventsConfig{
			Provider: defaultEventsProvider,
			Topic:    defaultEventsTopic,
			FeedSize: defaultFeedSize,
		},
		Client: ClientConfig{
			APITarget: defaultClientAPITarget,
		},
	}
}
