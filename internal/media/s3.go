package media

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// PutObjectAPI is the slice of the S3 client used here.
type PutObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3 uploads into a bucket that is served publicly (directly or via CDN).
type S3 struct {
	Client  PutObjectAPI
	Bucket  string
	BaseURL string
	Prefix  string
}

// NewS3 builds a store from the default AWS credential chain. When baseURL
// is empty the virtual-hosted bucket URL is used.
func NewS3(ctx context.Context, bucket, region, baseURL string) (*S3, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	}
	return &S3{
		Client:  s3.NewFromConfig(cfg),
		Bucket:  bucket,
		BaseURL: strings.TrimRight(baseURL, "/"),
		Prefix:  "listings",
	}, nil
}

func (s *S3) Put(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	key := path.Join(s.Prefix, uuid.NewString()+"-"+SafeName(name))
	_, err := s.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("S3.Put %s: %w", key, err)
	}
	return s.BaseURL + "/" + key, nil
}
