// Package integration contains integration tests for the CommitQuest UI service.
//
// These tests use testcontainers to spin up real dependencies (Redis) and exercise
// the session store against an environment that closely matches production.
package integration
