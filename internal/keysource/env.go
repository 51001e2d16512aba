package keysource

import (
	"context"
	"fmt"
	"os"
)

// EnvSource reads key material from an environment variable.
// Suitable for containerized deployments where secrets arrive through the
// environment.
type EnvSource struct {
	envKey string
}

// Compile-time check to ensure EnvSource implements Source
var _ Source = (*EnvSource)(nil)

// NewEnvSource creates an EnvSource for the given environment variable.
// Returns error if the variable name is empty or not set in the environment.
func NewEnvSource(envKey string) (*EnvSource, error) {
	if envKey == "" {
		return nil, fmt.Errorf("environment key cannot be empty")
	}

	if _, exists := os.LookupEnv(envKey); !exists {
		return nil, fmt.Errorf("environment variable %s not set", envKey)
	}

	return &EnvSource{
		envKey: envKey,
	}, nil
}

// Load returns the key material from the environment variable. Returns error if empty.
func (e *EnvSource) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := os.Getenv(e.envKey)
	if key == "" {
		return nil, fmt.Errorf("environment variable %s is empty", e.envKey)
	}
	return []byte(key), nil
}
