package awss3_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	awss3 "github.com/diskrescue/preview-cache/pkg/source/aws-s3"
)

func TestNewRejectsBadURLs(t *testing.T) {
	tests := []struct {
		name             string
		connectionString string
	}{
		{"wrong scheme", "https://bucket/image.dd"},
		{"missing key", "s3://bucket"},
		{"missing bucket", "s3:///image.dd"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, err := awss3.New(test.connectionString); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestNewParsesURL(t *testing.T) {
	backend, err := awss3.New("s3://recovery-images/cases/1138/disk.dd")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if backend.ImageURL != "s3://recovery-images/cases/1138/disk.dd" {
		t.Errorf("ImageURL = %q", backend.ImageURL)
	}
}

// TestReadRangeLive runs against an S3-compatible endpoint, normally
// localstack. It uploads a small image and reads slices back out of it.
func TestReadRangeLive(t *testing.T) {
	endpoint := os.Getenv("SOURCE_S3")
	if endpoint == "" {
		t.Skip("Skipped s3 as no env var")
	}

	bucket := uuid.NewString()
	key := "images/disk.dd"

	sess, err := session.NewSession(&aws.Config{
		Region:           aws.String("us-east-1"),
		Endpoint:         aws.String(endpoint),
		DisableSSL:       aws.Bool(strings.HasPrefix(endpoint, "http://")),
		Credentials:      credentials.NewStaticCredentials("test", "test", ""),
		S3ForcePathStyle: aws.Bool(true),
	})
	if err != nil {
		t.Fatal(err)
	}

	image := make([]byte, 1024)
	for i := range image {
		image[i] = byte(i % 251)
	}

	s3Client := s3.New(sess, sess.Config)
	if _, err = s3Client.CreateBucket(&s3.CreateBucketInput{Bucket: aws.String(bucket)}); err != nil {
		t.Fatal(err)
	}
	if _, err = s3Client.PutObject(&s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(image),
	}); err != nil {
		t.Fatal(err)
	}

	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	backend, err := awss3.New(fmt.Sprintf("s3://%s/%s?endpoint=%s", bucket, key, endpoint))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err = backend.Setup(); err != nil {
		t.Fatalf("Setup: %v", err)
	}

	if backend.Size() != int64(len(image)) {
		t.Errorf("Size = %d, want %d", backend.Size(), len(image))
	}

	rc, err := backend.ReadRange(context.Background(), 100, 50)
	if err != nil {
		t.Fatalf("ReadRange: %v", err)
	}
	defer rc.Close()

	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("reading range: %v", err)
	}
	if diff := cmp.Diff(image[100:150], got); diff != "" {
		t.Errorf("range mismatch (-want +got):\n%s", diff)
	}
}
