// Package mmap maps bundle files read-only into memory.
//
// Artifacts are decoded straight from the mapping, so a local bundle is
// never copied through an intermediate buffer. Mappings are advised for
// sequential access because every artifact is read front to back once.
//
// Close is idempotent. Callers must not touch Bytes() after Close.
package mmap
