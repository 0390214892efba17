package misc

import (
	"fmt"

	"github.com/joho/godotenv"
)

// LoadEnvSettings layers .env.local over .env; explicit environment
// variables always win because godotenv never overwrites.
func LoadEnvSettings() {
	godotenv.Load(".env.local")
	godotenv.Load() // .env
}

func LoadEnvForNetwork(network string) {
	godotenv.Load(fmt.Sprintf(".env.%s", network))
}
