package internal

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Config gathers every tunable of the server binary.
// Values come from the environment (optionally via a .env file loaded by main).
type Config struct {
	BufferSize           int    `env:"BUFFER_SIZE,required=true" validate:"min=1"`
	ConnectionBufferSize int    `env:"CONNECTION_BUFFER_SIZE,required=true" validate:"min=1"`
	RoomCapacity         int    `env:"ROOM_CAPACITY,required=true" validate:"min=2"`
	RoomMailboxSize      int    `env:"ROOM_MAILBOX_SIZE,required=true" validate:"min=1"`
	CharReplacement      string `env:"MODERATION_CHARACTER_REPLACEMENT,required=true"`
	MaxContentLength     int    `env:"MAX_CONTENT_LENGTH,required=true" validate:"min=1"`
	LimitMessages        *int   `env:"LIMIT_MESSAGES"`

	SinkTimeout    time.Duration `env:"SINK_TIMEOUT,required=true"`
	MetricInterval time.Duration `env:"METRIC_INTERVAL,required=true"`
	IdleTimeout    time.Duration `env:"IDLE_TIMEOUT,required=true"`

	SearchBatchSize     int           `env:"SEARCH_BATCH_SIZE,required=true" validate:"min=1"`
	SearchBufferTimeout time.Duration `env:"SEARCH_BUFFER_TIMEOUT,required=true"`
	SearchPageSize      int           `env:"SEARCH_PAGE_SIZE,default=20" validate:"min=1"`

	AuthSecret        string        `env:"AUTH_SECRET,required=true" validate:"min=32"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,required=true"`

	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath  string `env:"BLUGE_FILEPATH,required=true"`
	LogLevel       string `env:"LOG_LEVEL,required=true"`
	Host           string `env:"HOST,default=localhost"`
	Port           int    `env:"PORT,default=8080"`
	DebugPort      int    `env:"DEBUG_PORT,default=8081"`
}

// Validate enforces the numeric bounds the env tags cannot express.
// A short AUTH_SECRET is refused outright rather than producing weak tokens.
func (c Config) Validate() error {
	return validate.Struct(c)
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"MODERATION_CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
