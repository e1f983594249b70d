// Package fileutil walks a directory tree and classifies every regular file
// against compiled include and exclude matchers.
//
// A file is accepted when at least one include matcher accepts its
// slash-separated path relative to the walk root and no exclude matcher does.
// Subdirectories are entered only when WalkOptions.Recursive is set.
//
// Problems confined to a single entry (permission denied on a subdirectory,
// a dangling symlink) are collected in ScanResult.Errors and the walk
// continues. Only a missing or non-directory root fails the whole call.
//
// Files are returned sorted so that callers and tests see deterministic
// output, although nothing in the selection rule depends on order.
package fileutil
