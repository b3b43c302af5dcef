// Package aggregates implements the write boundaries declared in internal/domain.
//
// Implementations compose table-level repos from internal/data/repos and own
// the transaction for every write. Failures leave through MapError so callers
// only ever see domain aggregate codes.
package aggregates
