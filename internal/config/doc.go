// Package config loads and validates all runtime settings from environment
// variables. Fail-fast: a missing required variable aborts startup.
package config
