package segmento

import (
	"github.com/hupe1980/segmento/blobstore"
)

// Source locates a model bundle.
type Source struct {
	store blobstore.BlobStore
	desc  string
}

// Local reads the bundle from a directory on the local filesystem.
// Artifacts are memory-mapped while they are decoded.
func Local(dir string) Source {
	return Source{store: blobstore.NewLocalStore(dir), desc: "local:" + dir}
}

// Remote reads the bundle from any blob store, e.g. blobstore/s3 or
// blobstore/minio.
func Remote(store blobstore.BlobStore) Source {
	return Source{store: store, desc: "remote"}
}

// Store returns the underlying blob store.
func (s Source) Store() blobstore.BlobStore { return s.store }

func (s Source) String() string { return s.desc }
