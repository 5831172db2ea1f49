package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/rxfeed/oracle/record"
)

// S3Options configures an S3-compatible object store. Endpoint supports
// non-AWS providers (Cloudflare R2 uses
// https://<account>.r2.cloudflarestorage.com with region "auto"). When the
// static credentials are empty the AWS default credential chain applies.
type S3Options struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Key             string
}

// S3Store persists the record as one object in an S3-compatible bucket.
// Object PUTs are atomic on the provider side, which satisfies the store
// contract without any temp-object dance.
type S3Store struct {
	client            *s3.Client
	bucket            string
	key               string
	referenceCurrency string
	targetCurrency    string
}

// NewS3 creates an object store client for opts.Bucket/opts.Key.
func NewS3(ctx context.Context, opts S3Options, referenceCurrency, targetCurrency string) (*S3Store, error) {
	region := opts.Region
	if region == "" {
		region = "auto"
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("%w: load aws config: %v", ErrUnavailable, err)
	}

	var s3Opts []func(*s3.Options)
	if opts.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		})
	}

	return &S3Store{
		client:            s3.NewFromConfig(cfg, s3Opts...),
		bucket:            opts.Bucket,
		key:               opts.Key,
		referenceCurrency: referenceCurrency,
		targetCurrency:    targetCurrency,
	}, nil
}

func (s *S3Store) Load(ctx context.Context) (*record.Record, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		if isNotFound(err) {
			return record.New(s.referenceCurrency, s.targetCurrency), nil
		}
		return nil, fmt.Errorf("%w: get s3://%s/%s: %v", ErrUnavailable, s.bucket, s.key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read s3://%s/%s: %v", ErrUnavailable, s.bucket, s.key, err)
	}

	rec, err := record.Decode(data, s.referenceCurrency, s.targetCurrency)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return rec, nil
}

func (s *S3Store) Save(ctx context.Context, rec *record.Record) error {
	data, err := rec.Encode()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("%w: put s3://%s/%s: %v", ErrUnavailable, s.bucket, s.key, err)
	}
	return nil
}

// isNotFound reports whether err means the object (or the bucket itself)
// does not exist yet — the first-run case, not a failure.
func isNotFound(err error) bool {
	var noKey *types.NoSuchKey
	var noBucket *types.NoSuchBucket
	return errors.As(err, &noKey) || errors.As(err, &noBucket)
}
