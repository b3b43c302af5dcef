// Package aggregates defines the error taxonomy shared by every write boundary.
//
// Codes map one-to-one onto the API error kinds: validation, not_found,
// precondition_failed, conflict and dependency.
package aggregates
