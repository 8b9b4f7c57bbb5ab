// Package s3 provides Amazon S3 implementations of blobstore.BlobStore.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("segments/prod"),
//	    s3.WithRegion("eu-central-1"),
//	)
//
//	eng, err := segmento.Open(ctx, segmento.Remote(store))
//
// DDBCommitStore wraps a Store and resolves the CURRENT pointer through a
// DynamoDB table, so concurrent publishers cannot overwrite each other's
// commits.
package s3
