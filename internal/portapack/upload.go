package portapack

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// MirrorClient wraps the S3 client for the distribution mirror (any
// S3-compatible endpoint).
type MirrorClient struct {
	Client     *s3.Client
	BucketName string
}

// NewMirrorClient initializes a mirror client using configuration values.
func NewMirrorClient(cfg *Config) (*MirrorClient, error) {
	endpoint := cfg.Values["PORTAPACK_S3_ENDPOINT"]
	accessKey := cfg.Values["PORTAPACK_S3_ACCESS_KEY_ID"]
	secretKey := cfg.Values["PORTAPACK_S3_SECRET_ACCESS_KEY"]
	bucketName := cfg.Values["PORTAPACK_S3_BUCKET"]

	if endpoint == "" || accessKey == "" || secretKey == "" || bucketName == "" {
		return nil, fmt.Errorf("mirror credentials missing in configuration (PORTAPACK_S3_ENDPOINT, PORTAPACK_S3_ACCESS_KEY_ID, PORTAPACK_S3_SECRET_ACCESS_KEY, PORTAPACK_S3_BUCKET)")
	}

	region := cfg.Values["PORTAPACK_S3_REGION"]
	if region == "" {
		region = "auto"
	}

	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{URL: endpoint}, nil
	})

	options := []func(*config.LoadOptions) error{
		config.WithEndpointResolverWithOptions(resolver),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")),
		config.WithRegion(region),
	}

	if Debug {
		options = append(options, config.WithClientLogMode(aws.LogSigning|aws.LogRetries|aws.LogRequest|aws.LogResponse))
	}

	awsCfg, err := config.LoadDefaultConfig(context.TODO(), options...)
	if err != nil {
		return nil, fmt.Errorf("failed to load mirror config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	return &MirrorClient{Client: client, BucketName: bucketName}, nil
}

func mirrorContentType(key string) string {
	switch {
	case strings.HasSuffix(key, ".zst"):
		return "application/zstd"
	case strings.HasSuffix(key, ".gz"):
		return "application/gzip"
	case strings.HasSuffix(key, ".zip"):
		return "application/zip"
	default:
		return "application/octet-stream"
	}
}

// UploadFile uploads an in-memory payload to the mirror.
func (m *MirrorClient) UploadFile(ctx context.Context, key string, body []byte) error {
	_, err := m.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(m.BucketName),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String(mirrorContentType(key)),
	})
	return err
}

// UploadLocalFile uploads a file from disk to the mirror.
func (m *MirrorClient) UploadLocalFile(ctx context.Context, key, filePath string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return err
	}

	_, err = m.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(m.BucketName),
		Key:           aws.String(key),
		Body:          file,
		ContentLength: aws.Int64(stat.Size()),
		ContentType:   aws.String(mirrorContentType(key)),
	})
	return err
}

// publishArchive pushes the archive and its checksum sidecar to the mirror.
func publishArchive(archivePath, sidecarPath string, cfg *Config, execCtx *Executor) error {
	client, err := NewMirrorClient(cfg)
	if err != nil {
		return err
	}

	ctx := execCtx.Context
	key := filepath.Base(archivePath)

	colArrow.Print("-> ")
	colInfo.Printf("Uploading %s\n", key)
	if err := client.UploadLocalFile(ctx, key, archivePath); err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}

	sidecarData, err := os.ReadFile(sidecarPath)
	if err != nil {
		return err
	}
	if err := client.UploadFile(ctx, filepath.Base(sidecarPath), sidecarData); err != nil {
		return fmt.Errorf("upload %s: %w", filepath.Base(sidecarPath), err)
	}

	colArrow.Print("-> ")
	colSuccess.Println("Archive published to mirror")
	return nil
}
