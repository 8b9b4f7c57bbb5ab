// Package blobstore provides the storage abstraction segmentation bundles
// are loaded from and published to.
//
// A bundle is a handful of small immutable blobs (artifacts, dataset,
// manifests) plus a mutable CURRENT pointer. Implementations must be safe
// for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: local filesystem, reads through read-only mmap
//   - MemoryStore: in-process map, used by tests and fixtures
//   - CachingStore: block cache in front of any remote store
//   - s3.Store, s3.DDBCommitStore: Amazon S3, optionally with DynamoDB commits
//   - minio.Store: MinIO and other S3-compatible services
//
// # Custom Implementations
//
//	type BlobStore interface {
//	    Open(ctx, name) (Blob, error)
//	    Create(ctx, name) (WritableBlob, error)
//	    Put(ctx, name, data) error
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
package blobstore
