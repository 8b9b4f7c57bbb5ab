// Package minio provides a BlobStore implementation using the MinIO client.
//
// It works against MinIO and other S3-compatible services (Ceph, Garage,
// SeaweedFS) without pulling in the AWS SDK configuration chain, which
// suits on-premises deployments of segmentd.
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	    Secure: false,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	store := minioblob.NewStore(client, "models", "segments/")
//	eng, err := segmento.Open(ctx, segmento.Remote(store))
package minio
