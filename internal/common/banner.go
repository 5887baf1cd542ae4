package common

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/banner"
)

// PrintBanner displays the application banner and logs the effective listen address
func PrintBanner(config *Config, logger arbor.ILogger) {
	version := CurrentVersion().String()
	banner.PrintSimple("Serendib", version)

	logger.Info().
		Str("version", version).
		Str("environment", config.Environment).
		Str("site", config.Site.Name).
		Int("port", config.Server.Port).
		Msg("Serendib starting")
}
