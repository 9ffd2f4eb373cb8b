// Package config loads typed configuration from environment variables.
//
// It wraps github.com/caarlos0/env/v11 for struct parsing and
// github.com/joho/godotenv for dotenv files. Every component owns a Config
// struct with env tags; the server assembles them at startup:
//
//	var pgCfg pg.Config
//	if err := config.Load(&pgCfg); err != nil {
//		return err
//	}
//
// Load reads a .env file from the working directory once, parses the
// environment into the target struct and caches the result per type, so
// later calls are cheap and consistent. LoadEnv reads explicit dotenv files
// with later files taking precedence. ResetCache clears cached values between
// tests.
//
// Errors wrap ErrParsingConfig, ErrLoadingEnvFile or ErrNilPointer and can be
// checked with errors.Is. MustLoad and MustLoadEnv panic instead of returning
// an error.
package config
