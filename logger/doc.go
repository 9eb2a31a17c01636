// Package logger provides structured logging for reqpipe using zerolog.
//
// Output goes to stdout, stderr, or a file path rotated by lumberjack.
// Components take a scoped logger from WithComponent and log with flat
// field maps:
//
//	log := logger.NewDefault("reqpipe").WithComponent("pipeline.cache")
//	log.Debug("cache hit", logger.Fields(logger.FieldCacheKey, key))
package logger
