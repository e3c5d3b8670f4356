package internal

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	awsCreds "github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/caremesh/formlink"
)

// S3API is the slice of the S3 client the archive needs. The concrete
// *s3.Client satisfies it; tests substitute a stub.
type S3API interface {
	manager.UploadAPIClient
	CopyObject(ctx context.Context, params *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Archive writes export documents to S3. Each archive lands under a tmp key
// first and is promoted to its final key only after the upload succeeds, so a
// partial upload can never be mistaken for a finished archive.
type S3Archive struct {
	client S3API
	bucket string
	prefix string
	logger *zap.SugaredLogger
}

// NewS3Archive builds an archive over an existing client.
func NewS3Archive(client S3API, cfg formlink.ArchiveConfig) *S3Archive {
	return &S3Archive{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.TrimSuffix(cfg.Prefix, "/"),
		logger: zap.S().With("bucket", cfg.Bucket),
	}
}

// ConnectS3Archive loads AWS configuration and builds an archive with a real
// S3 client. Static credentials from the environment are used explicitly when
// present.
func ConnectS3Archive(ctx context.Context, cfg formlink.ArchiveConfig) (*S3Archive, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	if cfg.Region != "" {
		awsCfg.Region = cfg.Region
	}
	if envKey := os.Getenv("AWS_ACCESS_KEY_ID"); envKey != "" {
		awsCfg.Credentials = awsCreds.NewStaticCredentialsProvider(
			os.Getenv("AWS_ACCESS_KEY_ID"), os.Getenv("AWS_SECRET_ACCESS_KEY"), "")
	}
	return NewS3Archive(s3.NewFromConfig(awsCfg), cfg), nil
}

// Archive uploads an export document for a form and returns the final object
// key. The document goes to a _tmp key, is copied to the final key, and the
// tmp object is removed.
func (a *S3Archive) Archive(ctx context.Context, formID string, document []byte) (string, error) {
	id := uuid.Must(uuid.NewV7()).String()
	datePart := time.Now().UTC().Format("2006/01/02")
	tmpKey := fmt.Sprintf("%s/%s/_tmp/%s.json", a.prefix, formID, id)
	finalKey := fmt.Sprintf("%s/%s/%s/%s.json", a.prefix, formID, datePart, id)

	uploader := manager.NewUploader(a.client)
	if _, err := uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(tmpKey),
		Body:        bytes.NewReader(document),
		ContentType: aws.String("application/json"),
	}); err != nil {
		return "", a.archiveError(formID, "s3 upload failed", err)
	}

	if _, err := a.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(a.bucket),
		CopySource: aws.String(fmt.Sprintf("%s/%s", a.bucket, tmpKey)),
		Key:        aws.String(finalKey),
	}); err != nil {
		return "", a.archiveError(formID, "s3 copy tmp->final failed", err)
	}

	if _, err := a.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(tmpKey),
	}); err != nil {
		// The final object exists; a leftover tmp object is only clutter.
		a.logger.Warnw("failed to delete tmp archive object", "key", tmpKey, "err", err)
	}

	a.logger.Infow("export archived", "formId", formID, "key", finalKey)
	return finalKey, nil
}

func (a *S3Archive) archiveError(formID, message string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return formlink.NewFormlinkError(formlink.ErrorTypePersistence,
			formlink.ErrCodeArchiveFailed, message).
			WithForm(formID).
			WithDetail("s3_error_code", apiErr.ErrorCode()).
			WithCause(err)
	}
	return formlink.NewFormlinkError(formlink.ErrorTypePersistence,
		formlink.ErrCodeArchiveFailed, message).WithForm(formID).WithCause(err)
}
