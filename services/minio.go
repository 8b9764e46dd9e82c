package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	log "github.com/sirupsen/logrus"
)

const MINIO_SVC = "minio_svc"

var errMinioNotInitialized = errors.New("minio client not initialized")

// MinIOService is the blob store for user uploads such as avatars.
type MinIOService struct {
	appContext.DefaultService

	client   *minio.Client
	bucket   string
	endpoint string
	opts     *minio.Options
}

func (svc MinIOService) Id() string {
	return MINIO_SVC
}

func (svc *MinIOService) Configure(ctx *appContext.Context) error {
	cfg := ctx.Service(CONFIG_SVC).(*ConfigService).Config()

	svc.endpoint = cfg.MinioEndpoint
	svc.bucket = cfg.MinioBucket
	svc.opts = &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	}

	return svc.DefaultService.Configure(ctx)
}

func (svc *MinIOService) Start() error {
	client, err := minio.New(svc.endpoint, svc.opts)
	if err != nil {
		return fmt.Errorf("failed to create MinIO client: %w", err)
	}
	svc.client = client

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := svc.ensureBucket(ctx); err != nil {
		return err
	}

	log.WithFields(log.Fields{"endpoint": svc.endpoint, "bucket": svc.bucket}).Info("MinIO ready")
	return nil
}

func (svc *MinIOService) ensureBucket(ctx context.Context) error {
	exists, err := svc.client.BucketExists(ctx, svc.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", svc.bucket, err)
	}
	if exists {
		return nil
	}

	if err := svc.client.MakeBucket(ctx, svc.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", svc.bucket, err)
	}
	log.WithField("bucket", svc.bucket).Info("Created MinIO bucket")
	return nil
}

func (svc *MinIOService) Bucket() string {
	return svc.bucket
}

func (svc *MinIOService) PutObject(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error {
	if svc.client == nil {
		return errMinioNotInitialized
	}
	_, err := svc.client.PutObject(ctx, svc.bucket, objectName, reader, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("put %s: %w", objectName, err)
	}
	return nil
}

func (svc *MinIOService) PresignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	if svc.client == nil {
		return "", errMinioNotInitialized
	}
	u, err := svc.client.PresignedGetObject(ctx, svc.bucket, objectName, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", objectName, err)
	}
	return u.String(), nil
}

func (svc *MinIOService) RemoveObject(ctx context.Context, objectName string) error {
	if svc.client == nil {
		return errMinioNotInitialized
	}
	if err := svc.client.RemoveObject(ctx, svc.bucket, objectName, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove %s: %w", objectName, err)
	}
	return nil
}

// Probe writes, reads back and removes a small object to prove the bucket is usable.
func (svc *MinIOService) Probe(ctx context.Context) error {
	objectName := fmt.Sprintf("health_check_%d.txt", time.Now().UnixMilli())
	payload := []byte("ok")

	if err := svc.PutObject(ctx, objectName, bytes.NewReader(payload), int64(len(payload)), "text/plain"); err != nil {
		return err
	}
	defer func() {
		if err := svc.RemoveObject(context.Background(), objectName); err != nil {
			log.WithError(err).WithField("object", objectName).Warn("Failed to remove health check object")
		}
	}()

	obj, err := svc.client.GetObject(ctx, svc.bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return fmt.Errorf("read health check object: %w", err)
	}
	defer obj.Close()

	got, err := io.ReadAll(obj)
	if err != nil {
		return fmt.Errorf("read health check object: %w", err)
	}
	if !bytes.Equal(got, payload) {
		return errors.New("health check object content mismatch")
	}
	return nil
}
