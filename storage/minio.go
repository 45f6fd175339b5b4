package storage

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"soundwave/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var minioClient *minio.Client

// InitMinio initializes the MinIO client and ensures the bucket exists.
// Object storage is optional; when no endpoint is configured the client
// stays nil and cover-art features respond with errors.
func InitMinio(cfg *config.Config) error {
	if cfg.MinioEndpoint == "" {
		log.Println("MinIO endpoint not configured, object storage disabled.")
		return nil
	}

	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", cfg.MinioBucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", cfg.MinioBucket, err)
		}
		log.Printf("Created bucket: %s", cfg.MinioBucket)
	}

	minioClient = client
	log.Printf("Successfully connected to MinIO at %s", cfg.MinioEndpoint)
	return nil
}

// GetMinioClient returns the client, or nil when object storage is disabled.
func GetMinioClient() *minio.Client {
	return minioClient
}

// UploadCover stores cover-art bytes under covers/<name> and returns the
// serve path for the object.
func UploadCover(ctx context.Context, cfg *config.Config, name string, reader io.Reader, size int64, contentType string) (string, error) {
	if minioClient == nil {
		return "", fmt.Errorf("object storage not available")
	}

	objectName := "covers/" + name
	_, err := minioClient.PutObject(ctx, cfg.MinioBucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload cover %s: %w", objectName, err)
	}
	return "/static/" + objectName, nil
}

// GetObject fetches an object from the bucket for serving.
func GetObject(ctx context.Context, cfg *config.Config, objectPath string) (io.ReadCloser, error) {
	if minioClient == nil {
		return nil, fmt.Errorf("object storage not available")
	}
	object, err := minioClient.GetObject(ctx, cfg.MinioBucket, objectPath, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s: %w", objectPath, err)
	}
	return object, nil
}
