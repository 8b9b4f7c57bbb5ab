// Package hash provides CRC32-Castagnoli checksums.
//
// Manifests record the checksum of every stored artifact, and the S3
// backend sends the same checksum with uploads so the service verifies it.
package hash
