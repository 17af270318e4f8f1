// Package pathsec provides path normalization and the allow-list
// security policy consulted before every filesystem access.
//
// Normalize is a pure string transform producing one canonical
// forward-slash notation. Policy resolves a normalized path against
// the real filesystem (symlinks, existing-parent chain) and decides
// ALLOW/DENY using segment-wise containment in the configured roots,
// the symlink flag, and the reserved device-name filter.
package pathsec
