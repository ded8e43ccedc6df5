package logging

import (
	"context"
	"strings"

	"github.com/drydeck/drydeck/pkg/interfaces"
)

const (
	rootModule       = "drydeck"
	locationsModule  = "drydeck.locations"
	migrationsModule = "drydeck.migrations"
	httpModule       = "drydeck.http"
	storageModule    = "drydeck.storage"
)

const (
	fieldRequestID = "request_id"
	fieldMethod    = "method"
	fieldPath      = "path"
)

// ModuleLogger returns a module-scoped logger, defaulting to a no-op
// implementation when no provider is supplied. The module name is attached
// as a structured field.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	return WithFields(logger, map[string]any{
		"module": module,
	})
}

// LocationsLogger returns the logger namespace reserved for the address service.
func LocationsLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, locationsModule)
}

// MigrationsLogger returns the logger namespace reserved for the schema migration runner.
func MigrationsLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, migrationsModule)
}

// HTTPLogger returns the logger namespace reserved for the HTTP server.
func HTTPLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, httpModule)
}

// StorageLogger returns the logger namespace reserved for database wiring.
func StorageLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, storageModule)
}

// WithRequestContext enriches the logger with request identifiers. Empty
// values are ignored.
func WithRequestContext(logger interfaces.Logger, requestID, method, path string) interfaces.Logger {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(requestID); trimmed != "" {
		fields[fieldRequestID] = trimmed
	}
	if trimmed := strings.TrimSpace(method); trimmed != "" {
		fields[fieldMethod] = trimmed
	}
	if trimmed := strings.TrimSpace(path); trimmed != "" {
		fields[fieldPath] = trimmed
	}
	return WithFields(logger, fields)
}

// NoOp returns a logger that drops every entry.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}
