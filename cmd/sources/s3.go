package sources

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

func isS3Path(path string) bool {
	return strings.HasPrefix(path, "s3://")
}

// fetchS3Object downloads s3://bucket/key to a temp file and returns its
// path plus a cleanup func. Endpoint, credentials, and region come from
// S3_ENDPOINT, S3_ACCESS_KEY, S3_SECRET_KEY, and S3_REGION. The temp file
// keeps the object's extension so compression detection still works.
func fetchS3Object(ctx context.Context, rawURL string) (string, func(), error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", nil, fmt.Errorf("invalid S3 path %q: %w", rawURL, err)
	}
	bucket := u.Host
	key := strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return "", nil, fmt.Errorf("invalid S3 path %q: want s3://bucket/key", rawURL)
	}

	awsConfig := &aws.Config{
		S3ForcePathStyle: aws.Bool(true),
	}
	if endpoint := os.Getenv("S3_ENDPOINT"); endpoint != "" {
		awsConfig.Endpoint = aws.String(endpoint)
	}
	region := os.Getenv("S3_REGION")
	if region == "" {
		region = "auto"
	}
	awsConfig.Region = aws.String(region)
	if accessKey := os.Getenv("S3_ACCESS_KEY"); accessKey != "" {
		awsConfig.Credentials = credentials.NewStaticCredentials(accessKey, os.Getenv("S3_SECRET_KEY"), "")
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create S3 session: %w", err)
	}
	downloader := s3manager.NewDownloader(sess)

	tempFile, err := os.CreateTemp("", "tablediff-*"+filepath.Ext(key))
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp file: %w", err)
	}

	_, err = downloader.DownloadWithContext(ctx, tempFile, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if closeErr := tempFile.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tempFile.Name())
		return "", nil, fmt.Errorf("failed to download %s: %w", rawURL, err)
	}

	name := tempFile.Name()
	return name, func() { os.Remove(name) }, nil
}
