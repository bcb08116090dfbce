// Package redis connects to a Redis server from env-driven
// configuration, with startup retries and a readiness probe.
package redis
