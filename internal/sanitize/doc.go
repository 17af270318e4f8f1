// Package sanitize scrubs control bytes out of outbound payloads and
// encodes response frames so that the transport can only ever emit
// valid JSON.
//
// Two lines of defense: Sanitize rewrites string leaves structurally
// before encoding, and EncodeFrame re-validates the encoded text,
// stripping any raw control byte and substituting a fixed minimal
// error frame if the encoder itself misbehaves.
package sanitize
