// Package config loads env-tagged configuration structs from the
// process environment, bootstrapping from a .env file when present.
// Each config type is parsed once per process and cached.
package config
