package commands

import (
	"strings"

	"github.com/drydeck/drydeck/internal/logging"
	"github.com/drydeck/drydeck/pkg/interfaces"
)

const commandModuleRoot = "drydeck.commands"

// CommandLogger returns the logger for a command group, e.g. "addresses".
func CommandLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	name := strings.TrimSpace(module)
	if name == "" {
		name = "core"
	}
	logger := logging.ModuleLogger(provider, commandModuleRoot+"."+name)
	return logging.WithFields(logger, map[string]any{
		"component": "command",
	})
}
