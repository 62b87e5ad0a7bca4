package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. TCG_GAME_DECK_SIZE.
const EnvPrefix = "TCG"

// Catalog sources.
const (
	CatalogSourceFile     = "file"
	CatalogSourcePostgres = "postgres"
)

// Config is the full process configuration.
type Config struct {
	Logging  LoggingConfig  `mapstructure:"logging"`
	Game     GameConfig     `mapstructure:"game"`
	Rules    RulesConfig    `mapstructure:"rules"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
}

// LoggingConfig selects the zap level and encoder.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// GameConfig holds per-game options.
type GameConfig struct {
	DeckSize     int    `mapstructure:"deck_size"`
	MaxTurns     int    `mapstructure:"max_turns"`
	HumanSeats   []int  `mapstructure:"human_seats"`
	Seed         uint64 `mapstructure:"seed"`
	RecordReplay bool   `mapstructure:"record_replay"`
	Strategy     string `mapstructure:"strategy"`
	Effects      string `mapstructure:"effects"`
}

// RulesConfig locates the rules document and tunes legality.
type RulesConfig struct {
	Path      string              `mapstructure:"path"`
	TypeTable map[string][]string `mapstructure:"type_table"`
	FaceUp    map[string]bool     `mapstructure:"face_up"`
}

// CatalogConfig selects where card definitions come from.
type CatalogConfig struct {
	Source string `mapstructure:"source"`
	Path   string `mapstructure:"path"`
}

// ServerConfig configures the network listeners.
type ServerConfig struct {
	WebSocket WebSocketConfig `mapstructure:"websocket"`
	GRPC      GRPCConfig      `mapstructure:"grpc"`
}

// WebSocketConfig configures the event push endpoint.
type WebSocketConfig struct {
	Address         string        `mapstructure:"address"`
	Path            string        `mapstructure:"path"`
	ReadBufferSize  int           `mapstructure:"read_buffer_size"`
	WriteBufferSize int           `mapstructure:"write_buffer_size"`
	SendQueue       int           `mapstructure:"send_queue"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
}

// GRPCConfig configures the health endpoint.
type GRPCConfig struct {
	Address string `mapstructure:"address"`
}

// DatabaseConfig configures the PostgreSQL pool used as a catalog source.
type DatabaseConfig struct {
	URL            string        `mapstructure:"url"`
	MaxConns       int32         `mapstructure:"max_conns"`
	MinConns       int32         `mapstructure:"min_conns"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("game.deck_size", 30)
	v.SetDefault("game.max_turns", 0)
	v.SetDefault("game.human_seats", []int{1})
	v.SetDefault("game.seed", 0)
	v.SetDefault("game.record_replay", false)
	v.SetDefault("game.strategy", "greedy")
	v.SetDefault("game.effects", "none")

	v.SetDefault("rules.path", "testdata/rules.json")
	v.SetDefault("rules.type_table", map[string][]string{})
	v.SetDefault("rules.face_up", map[string]bool{})

	v.SetDefault("catalog.source", CatalogSourceFile)
	v.SetDefault("catalog.path", "testdata/cards.json")

	v.SetDefault("server.websocket.address", ":8080")
	v.SetDefault("server.websocket.path", "/ws")
	v.SetDefault("server.websocket.read_buffer_size", 1024)
	v.SetDefault("server.websocket.write_buffer_size", 1024)
	v.SetDefault("server.websocket.send_queue", 256)
	v.SetDefault("server.websocket.write_timeout", 10*time.Second)
	v.SetDefault("server.grpc.address", ":50051")

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_conns", 4)
	v.SetDefault("database.min_conns", 0)
	v.SetDefault("database.connect_timeout", 5*time.Second)
}

// Load reads the YAML file at path, applies TCG_* environment overrides on
// top and validates the result. An empty path loads defaults and environment
// only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values viper cannot type-check.
func (c *Config) Validate() error {
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	if c.Game.DeckSize < 0 {
		return fmt.Errorf("game.deck_size must not be negative, got %d", c.Game.DeckSize)
	}
	if c.Game.MaxTurns < 0 {
		return fmt.Errorf("game.max_turns must not be negative, got %d", c.Game.MaxTurns)
	}
	for _, seat := range c.Game.HumanSeats {
		if seat < 1 {
			return fmt.Errorf("game.human_seats: seat %d is not a player id", seat)
		}
	}
	switch c.Game.Strategy {
	case "greedy", "pass":
	default:
		return fmt.Errorf("game.strategy must be greedy or pass, got %q", c.Game.Strategy)
	}
	switch c.Game.Effects {
	case "none", "attack":
	default:
		return fmt.Errorf("game.effects must be none or attack, got %q", c.Game.Effects)
	}
	switch c.Catalog.Source {
	case CatalogSourceFile:
		if c.Catalog.Path == "" {
			return fmt.Errorf("catalog.path is required for the file source")
		}
	case CatalogSourcePostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("database.url is required for the postgres catalog source")
		}
	default:
		return fmt.Errorf("catalog.source must be %s or %s, got %q", CatalogSourceFile, CatalogSourcePostgres, c.Catalog.Source)
	}
	return nil
}
