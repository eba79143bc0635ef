package bundle

import "fmt"

// Target environments accepted by the bundler configuration.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// ValidateEnvironment checks that env is one of the two supported target
// environments.
func ValidateEnvironment(env string) error {
	switch env {
	case EnvDevelopment, EnvProduction:
		return nil
	default:
		return fmt.Errorf("invalid environment %q: must be %q or %q", env, EnvDevelopment, EnvProduction)
	}
}
