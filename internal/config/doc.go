// Package config provides configuration structures and utilities for logscrub.
// It defines the options of the scrub command and the policy file that
// extends the default redaction rules.
package config
