// Package fsops implements the filesystem tools exposed by the
// gateway: read, write, list, search, copy, move, delete, mkdir,
// getInfo and path normalization.
//
// Every method follows the same template: normalize path(s), consult
// the security policy, gate mutations on the write-enabled flag, run
// existence/type/size checks, perform the I/O, and return a structured
// result. Methods raise typed errors from the protocol package; they
// never format wire responses.
//
// Per-entry failures inside bulk operations (listing, recursive
// delete, search) degrade that one entry and are logged rather than
// aborting the whole call.
package fsops
