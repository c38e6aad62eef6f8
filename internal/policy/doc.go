// Package policy defines the redaction policy applied to log records.
//
// A policy names three disjoint sets of field names. A field whose key is in
// the secret set is replaced with MaskedToken, in the content set with
// ContentToken, in the template set with TemplateToken. Matching is exact and
// case-sensitive and looks only at the key of the field itself.
package policy
