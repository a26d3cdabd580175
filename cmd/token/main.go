package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"

	"huddle/auth"
	"huddle/domain"
)

// Config reads only the signing material, shared with the server through .env.
type Config struct {
	AuthSecret        string        `env:"AUTH_SECRET,required=true"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`
}

// Mints a development JWT for connecting a client or running the e2e suite.
func main() {
	userID := flag.String("user", "u-1", "user id claim")
	name := flag.String("name", "Alice", "display name claim")
	avatar := flag.String("avatar", "", "optional avatar URL claim")
	flag.Parse()

	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(2)
	}

	tokens := auth.NewTokenManager(config.AuthSecret, config.AuthTokenDuration)
	token, err := tokens.Generate(domain.Principal{
		UserID: *userID,
		Name:   *name,
		Avatar: *avatar,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Token generation failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(token)
}
