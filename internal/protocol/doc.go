// Package protocol defines the JSON-RPC 2.0 frame types, the reserved
// error codes, and the typed error taxonomy shared by all layers.
//
// Lower layers raise typed errors (SecurityError, NotFoundError, ...);
// the dispatcher is the only place that maps them onto wire codes.
package protocol
