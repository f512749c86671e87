package storage

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

// s3Storage is an S3-compatible backend, used when installOptions.dest
// is an "s3://bucket/prefix" URL (spec §4.7). It uses the real AWS SDK
// for request signing rather than a hand-rolled REST client.
type s3Storage struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	prefix   string
}

// NewS3Storage creates a new S3-compatible storage backend from
// options; Bucket, AccessKeyID and SecretAccessKey are required, and
// Region is passed to the SDK as given.
func NewS3Storage(options *StorageOptions) (Storage, error) {
	if options.Bucket == "" {
		return nil, errors.New("missing bucket")
	}
	if options.AccessKeyID == "" {
		return nil, errors.New("missing accessKeyID")
	}
	if options.SecretAccessKey == "" {
		return nil, errors.New("missing secretAccessKey")
	}

	cfg, err := awsconfig.LoadDefaultConfig(
		context.Background(),
		awsconfig.WithRegion(options.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(options.AccessKeyID, options.SecretAccessKey, "")),
	)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if options.Endpoint != "" {
			o.BaseEndpoint = aws.String(options.Endpoint)
		}
	})

	return &s3Storage{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   options.Bucket,
		prefix:   options.CacheDir,
	}, nil
}

func (s *s3Storage) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return s.prefix + "/" + name
}

type s3ObjectMeta struct {
	size         int64
	lastModified time.Time
}

func (m *s3ObjectMeta) Size() int64        { return m.size }
func (m *s3ObjectMeta) ModTime() time.Time { return m.lastModified }

func (s *s3Storage) Stat(name string) (Stat, error) {
	if name == "" {
		return nil, errors.New("name is required")
	}
	out, err := s.client.HeadObject(context.Background(), &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	meta := &s3ObjectMeta{}
	if out.ContentLength != nil {
		meta.size = *out.ContentLength
	}
	if out.LastModified != nil {
		meta.lastModified = *out.LastModified
	}
	return meta, nil
}

func (s *s3Storage) Get(name string) (io.ReadCloser, Stat, error) {
	if name == "" {
		return nil, nil, errors.New("name is required")
	}
	out, err := s.client.GetObject(context.Background(), &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	meta := &s3ObjectMeta{}
	if out.ContentLength != nil {
		meta.size = *out.ContentLength
	}
	if out.LastModified != nil {
		meta.lastModified = *out.LastModified
	}
	return out.Body, meta, nil
}

func (s *s3Storage) Put(name string, content io.Reader) error {
	if name == "" {
		return errors.New("name is required")
	}
	_, err := s.uploader.Upload(context.Background(), &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
		Body:   content,
	})
	return err
}

func (s *s3Storage) Delete(name string) error {
	if name == "" {
		return errors.New("key is required")
	}
	_, err := s.client.DeleteObject(context.Background(), &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	return err
}

func (s *s3Storage) List(prefix string) ([]string, error) {
	ctx := context.Background()
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.key(prefix)),
	})
	var keys []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			if obj.Key != nil {
				keys = append(keys, stripPrefix(*obj.Key, s.prefix))
			}
		}
	}
	return keys, nil
}

func (s *s3Storage) DeleteAll(prefix string) ([]string, error) {
	if prefix == "" {
		return nil, errors.New("prefix is required")
	}
	keys, err := s.List(prefix)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return []string{}, nil
	}
	objects := make([]types.ObjectIdentifier, len(keys))
	for i, k := range keys {
		objects[i] = types.ObjectIdentifier{Key: aws.String(s.key(k))}
	}
	_, err = s.client.DeleteObjects(context.Background(), &s3.DeleteObjectsInput{
		Bucket: aws.String(s.bucket),
		Delete: &types.Delete{Objects: objects},
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// Clear removes every object under this storage's prefix.
func (s *s3Storage) Clear() error {
	keys, err := s.List("")
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	objects := make([]types.ObjectIdentifier, len(keys))
	for i, k := range keys {
		objects[i] = types.ObjectIdentifier{Key: aws.String(s.key(k))}
	}
	_, err = s.client.DeleteObjects(context.Background(), &s3.DeleteObjectsInput{
		Bucket: aws.String(s.bucket),
		Delete: &types.Delete{Objects: objects},
	})
	return err
}

func stripPrefix(key, prefix string) string {
	if prefix == "" {
		return key
	}
	trimmed := prefix + "/"
	if len(key) > len(trimmed) && key[:len(trimmed)] == trimmed {
		return key[len(trimmed):]
	}
	return key
}

func isNotFound(err error) bool {
	var nf *types.NoSuchKey
	if errors.As(err, &nf) {
		return true
	}
	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) {
		return respErr.HTTPStatusCode() == 404
	}
	return false
}
