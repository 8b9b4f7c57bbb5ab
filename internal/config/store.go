package config

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hupe1980/segmento"
	"github.com/hupe1980/segmento/blobstore"
	miniostore "github.com/hupe1980/segmento/blobstore/minio"
	s3store "github.com/hupe1980/segmento/blobstore/s3"
)

// OpenStore connects to the configured backend.
func (s StorageConfig) OpenStore(ctx context.Context) (blobstore.BlobStore, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	switch s.Backend {
	case BackendLocal:
		return blobstore.NewLocalStore(s.Path), nil
	case BackendS3:
		return s.openS3(ctx)
	case BackendMinIO:
		return s.openMinIO()
	}
	return nil, invalidf("unknown storage backend %q", s.Backend)
}

// Source returns the engine source for the configured backend.
func (s StorageConfig) Source(ctx context.Context) (segmento.Source, error) {
	if s.Backend == BackendLocal {
		if err := s.Validate(); err != nil {
			return segmento.Source{}, err
		}
		return segmento.Local(s.Path), nil
	}
	store, err := s.OpenStore(ctx)
	if err != nil {
		return segmento.Source{}, err
	}
	return segmento.Remote(store), nil
}

func (s StorageConfig) openS3(ctx context.Context) (blobstore.BlobStore, error) {
	opts := []s3store.Option{s3store.WithPrefix(s.Prefix)}
	if s.Region != "" {
		opts = append(opts, s3store.WithRegion(s.Region))
	}
	if s.Endpoint != "" {
		opts = append(opts, s3store.WithEndpoint(s.Endpoint, s.UsePathStyle))
	}

	store, err := s3store.New(ctx, s.Bucket, opts...)
	if err != nil {
		return nil, fmt.Errorf("open s3 store: %w", err)
	}
	if s.CommitTable == "" {
		return store, nil
	}

	var cfgOpts []func(*awsconfig.LoadOptions) error
	if s.Region != "" {
		cfgOpts = append(cfgOpts, awsconfig.WithRegion(s.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, cfgOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return s3store.NewDDBCommitStore(store, dynamodb.NewFromConfig(awsCfg), s.CommitTable, ""), nil
}

func (s StorageConfig) openMinIO() (blobstore.BlobStore, error) {
	client, err := minio.New(s.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(s.AccessKey, s.SecretKey, ""),
		Secure: s.Secure,
		Region: s.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("open minio client: %w", err)
	}
	return miniostore.NewStore(client, s.Bucket, s.Prefix), nil
}
