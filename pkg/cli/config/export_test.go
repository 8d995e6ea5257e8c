package config

import "time"

// NewLoggerForTest creates a Logger config for testing purposes
func NewLoggerForTest(level, format, output string) *Logger {
	return &Logger{
		level:  level,
		format: format,
		output: output,
	}
}

// NewAuthForTest creates an Auth config for testing purposes
func NewAuthForTest(secret string, ttl time.Duration) *Auth {
	return &Auth{
		jwtSecret: secret,
		tokenTTL:  ttl,
	}
}

// NewRepositoryForTest creates a Repository config for testing purposes
func NewRepositoryForTest(backend string) *Repository {
	return &Repository{backend: backend}
}
