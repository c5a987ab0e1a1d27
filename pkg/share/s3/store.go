// Package s3 implements a share.Store backed by Amazon S3 or S3-compatible
// object storage.
//
// Key Design:
//   - Live documents:     <prefix>live/<uuid>.json
//   - Archived documents: <prefix>archive/<uuid>.json
//
// Each object holds the canonical JSON of one share document. Archiving is a
// server-side copy into the archive namespace followed by a delete of the
// live object. The copy completes before the delete, so a crash between the
// two steps leaves the document duplicated, never lost; RetrieveAll re-lists
// it as live and the next archive attempt converges.
//
// Thread Safety:
// This implementation is safe for concurrent use by multiple goroutines.
// The collection serializes writes per share ID, so last-write-wins on a
// single object is never observed in practice.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/marmos91/dittoshare/pkg/share"
)

// S3ShareStore implements share.Store using S3 object storage.
type S3ShareStore struct {
	client    *s3.Client
	bucket    string
	keyPrefix string
}

// S3ShareStoreConfig contains configuration for the S3 share store.
type S3ShareStoreConfig struct {
	// Client is the configured S3 client
	Client *s3.Client

	// Bucket is the S3 bucket name
	Bucket string

	// KeyPrefix is an optional prefix for all object keys
	// Example: "dittoshare/" results in keys like "dittoshare/live/<id>.json"
	KeyPrefix string
}

// NewS3ShareStore creates a new S3-backed share store.
//
// The bucket must already exist; this function verifies access to it but does
// not create it.
func NewS3ShareStore(ctx context.Context, cfg S3ShareStoreConfig) (*S3ShareStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if cfg.Client == nil {
		return nil, fmt.Errorf("S3 client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	_, err := cfg.Client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(cfg.Bucket),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to access bucket %q: %w", cfg.Bucket, err)
	}

	return &S3ShareStore{
		client:    cfg.Client,
		bucket:    cfg.Bucket,
		keyPrefix: cfg.KeyPrefix,
	}, nil
}

func (s *S3ShareStore) liveKey(id string) string {
	return s.keyPrefix + "live/" + id + ".json"
}

func (s *S3ShareStore) archiveKey(id string) string {
	return s.keyPrefix + "archive/" + id + ".json"
}

// Store implements share.Store. Puts the canonical document bytes as one
// object; S3 object writes are atomic.
func (s *S3ShareStore) Store(ctx context.Context, doc *share.Doc) (string, error) {
	data, digest, err := share.EncodeDoc(doc)
	if err != nil {
		return "", share.StoreFailure("store", err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.liveKey(doc.ID)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", share.StoreFailure("store", err)
	}
	return digest, nil
}

// RetrieveAll implements share.Store. Lists the live namespace and fetches
// every object. The listing is paginated, so collections larger than one
// S3 page (1000 objects) are handled transparently.
func (s *S3ShareStore) RetrieveAll(ctx context.Context) ([]share.Record, error) {
	var recs []share.Record

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.keyPrefix + "live/"),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, share.StoreFailure("retrieve", err)
		}

		for _, obj := range page.Contents {
			rec, err := s.fetch(ctx, aws.ToString(obj.Key))
			if err != nil {
				return nil, err
			}
			recs = append(recs, rec)
		}
	}
	return recs, nil
}

func (s *S3ShareStore) fetch(ctx context.Context, key string) (share.Record, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return share.Record{}, share.StoreFailure("retrieve", err)
	}
	defer func() { _ = out.Body.Close() }()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return share.Record{}, share.StoreFailure("retrieve", err)
	}

	doc, err := share.DecodeDoc(data)
	if err != nil {
		return share.Record{}, share.StoreFailure("retrieve", err)
	}
	return share.Record{Digest: share.DigestBytes(data), Doc: doc}, nil
}

// Archive implements share.Store. Copies the live object into the archive
// namespace, then deletes the live object.
func (s *S3ShareStore) Archive(ctx context.Context, id string) error {
	_, err := s.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(s.bucket),
		CopySource: aws.String(s.bucket + "/" + s.liveKey(id)),
		Key:        aws.String(s.archiveKey(id)),
	})
	if err != nil {
		if isNotFound(err) {
			return &share.Error{Code: share.ErrNotFound, Message: "share " + id + " is not stored"}
		}
		return share.StoreFailure("archive", err)
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.liveKey(id)),
	})
	if err != nil {
		return share.StoreFailure("archive", err)
	}
	return nil
}

func isNotFound(err error) bool {
	var noKey *types.NoSuchKey
	if errors.As(err, &noKey) {
		return true
	}
	var notFound *types.NotFound
	return errors.As(err, &notFound)
}
