// Package config loads service configuration with viper.
//
// A YAML file is read first, then a .env file (via godotenv) and the process
// environment override it. Environment variables are matched with the
// service prefix removed, so for service "reqpipe":
//
//	REQPIPE_PIPELINE_CACHE_TTL=30s  ->  pipeline.cache_ttl
//
// Unprefixed variables are bound too, which keeps LOG_LEVEL style settings
// working.
//
// Every config struct follows the same contract: ApplyDefaults fills zero
// values, Validate reports the first invalid field.
package config
