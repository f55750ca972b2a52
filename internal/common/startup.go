package common

// LogStartup records a structured startup line with build identity and the
// fields relevant to the running component. Replaces the ASCII banner the
// single-service predecessor printed to stderr — three independent
// binaries share one log stream here, so a boot line beats banner art.
func LogStartup(logger *Logger, component string, fields map[string]string) {
	evt := logger.Info().
		Str("component", component).
		Str("version", GetVersion()).
		Str("build", GetBuild()).
		Str("commit", GetGitCommit())
	for k, v := range fields {
		evt = evt.Str(k, v)
	}
	evt.Msg("starting")
}

// LogShutdown records a structured shutdown line.
func LogShutdown(logger *Logger, component string) {
	logger.Info().Str("component", component).Msg("shutting down")
}
