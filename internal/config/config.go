package config

// Config holds all application configuration loaded from environment
// variables, parsed with github.com/caarlos0/env. Game rule parameters
// (limits, probabilities) live in the YAML file at RulesPath, not here.
type Config struct {
	// Server configuration
	MetricsPort int    `env:"METRICS_PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"dev"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"WifeGameEngine"`

	// Redis configuration
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     string `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	// Game configuration
	RulesPath      string   `env:"RULES_PATH" envDefault:"config/rules.yaml"`
	DayOffsetHours int      `env:"DAY_OFFSET_HOURS" envDefault:"8"`
	AdminIDs       []string `env:"ADMIN_IDS" envSeparator:","`

	// Collaborator wiring
	MuteChannel string `env:"MUTE_CHANNEL" envDefault:"wifegame:mute"`
	CatalogKey  string `env:"CATALOG_KEY" envDefault:"wifegame:catalog"`
}
