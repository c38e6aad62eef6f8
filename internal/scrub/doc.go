// Package scrub removes sensitive substrings from free text.
//
// A Scrubber knows two kinds of secrets. Literal secrets are registered at
// runtime (API tokens read from the environment, passwords from a config
// file) and are replaced wherever they appear, together with their base64
// encoding. Rules are regular expressions for well-known credential shapes
// such as GitHub tokens, JWTs and PEM private keys.
//
// Every replacement uses the Redacted marker, which matches no rule, so
// scrubbing already scrubbed text changes nothing.
package scrub
