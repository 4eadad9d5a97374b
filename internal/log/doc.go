// Package log provides secure logging functionality with automatic sanitization
// of sensitive information, built on top of the standard slog package.
//
// This package extends slog to provide:
//   - Automatic sanitization of sensitive values (cookies, tokens, secrets)
//   - Configurable log levels with verbose mode support
//   - Consistent log formatting across the application
//
// # Security Features
//
// The SecureHandler automatically sanitizes sensitive information in log output:
//   - HTTP headers (Authorization, Cookie, Set-Cookie, X-Api-Key)
//   - Identity roster secrets (account passwords, TOTP seeds)
//   - Proxy URLs carrying embedded credentials
//   - Gemini API keys and other secret values detected by pattern matching
//   - Session identifiers and authentication tokens
//
// Even in verbose mode, sensitive values are masked to prevent accidental
// exposure of secrets in logs that may be shared or stored.
//
// # Usage
//
//	// Create a secure logger
//	logger := log.NewSecureLogger(os.Stderr, true) // verbose=true
//
//	// Use as a standard slog.Logger
//	logger.Info("session restored",
//	    "cookie", "sessionid=abc123",  // Will be sanitized to "***REDACTED***"
//	    "identity", "worker-1",
//	)
//
//	// Set as default logger
//	slog.SetDefault(logger)
package log
