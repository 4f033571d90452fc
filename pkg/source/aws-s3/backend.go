package awss3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/diskrescue/preview-cache/pkg/e"
)

// Backend reads byte ranges out of a disk image stored in S3, using
// HTTP range requests so only the requested slice is transferred.
type Backend struct {
	ImageURL string
	Session  *session.Session
	Client   *s3.S3

	bucket string
	key    string
	region string
	size   int64
}

func New(connectionString string) (*Backend, error) {
	parsedURL, err := url.Parse(connectionString)
	if err != nil {
		return nil, err
	}

	if parsedURL.Scheme != "s3" {
		//goland:noinspection GoErrorStringFormat
		return nil, errors.New("S3 url should be in the format of s3://bucket/path/to/image")
	}

	bucket := parsedURL.Host
	key := strings.TrimPrefix(parsedURL.Path, "/")
	if bucket == "" || key == "" {
		//goland:noinspection GoErrorStringFormat
		return nil, errors.New("S3 url should be in the format of s3://bucket/path/to/image")
	}

	config := &aws.Config{Region: aws.String("us-east-1")}
	if endpoint := parsedURL.Query().Get("endpoint"); endpoint != "" {
		// S3-compatible endpoints, mostly localstack
		config.Endpoint = aws.String(endpoint)
		config.DisableSSL = aws.Bool(strings.HasPrefix(endpoint, "http://"))
		config.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(config)
	if err != nil {
		return &Backend{}, err
	}

	backend := Backend{
		ImageURL: connectionString,
		Session:  sess,
		bucket:   bucket,
		key:      key,
		region:   "us-east-1", // Region is calculated in Setup()
		size:     -1,
	}
	return &backend, nil
}

func (b *Backend) Setup() error {
	b.Client = s3.New(b.Session, &aws.Config{Region: aws.String(b.region)})
	resp, err := b.Client.GetBucketLocation(&s3.GetBucketLocationInput{Bucket: aws.String(b.bucket)})
	if err != nil {
		return err
	}

	if resp.LocationConstraint != nil {
		b.region = *resp.LocationConstraint
		b.Session.Config.Region = resp.LocationConstraint
		b.Client = s3.New(b.Session, &aws.Config{Region: resp.LocationConstraint})
	}

	head, err := b.Client.HeadObject(&s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key),
	})
	if err != nil {
		return fmt.Errorf("heading image object: %w", err)
	}
	if head.ContentLength != nil {
		b.size = *head.ContentLength
	}

	return nil
}

func (b *Backend) ReadRange(ctx context.Context, offset, length int64) (io.ReadCloser, error) {
	if offset < 0 || length < 0 {
		return nil, e.ErrInvalidRange
	}
	if length == 0 {
		return io.NopCloser(bytes.NewReader(nil)), nil
	}
	// Compared this way round so offset+length cannot overflow
	if b.size >= 0 && offset > b.size-length {
		return nil, fmt.Errorf("%w: %d bytes at offset %d exceeds image size %d", e.ErrInvalidRange, length, offset, b.size)
	}

	resp, err := b.Client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", offset, offset+length-1)),
	})
	if err != nil {
		return nil, err
	}

	if resp.ContentLength != nil && *resp.ContentLength != length {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%w: ranged read returned %d bytes, wanted %d", e.ErrInvalidRange, *resp.ContentLength, length)
	}

	return resp.Body, nil
}

func (b *Backend) Size() int64 {
	return b.size
}
