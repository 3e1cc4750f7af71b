package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// Presigner is the subset of the S3 presign client the upload service uses.
type Presigner interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// UploadService hands out short-lived presigned PUT URLs for screenshot
// uploads. Objects land under users/{userID}/uploads/.
type UploadService struct {
	logger    *zap.Logger
	presigner Presigner
	bucket    string
	expiry    time.Duration
}

var (
	ErrNoImages     = errors.New("no images provided")
	ErrInvalidImage = errors.New("invalid image")
)

func NewUploadService(logger *zap.Logger, presigner Presigner, bucket string) *UploadService {
	return &UploadService{
		logger:    logger,
		presigner: presigner,
		bucket:    bucket,
		expiry:    60 * time.Second,
	}
}

type ImageInput struct {
	FileName string `json:"fileName"`
	MimeType string `json:"mimeType"`
}

type PresignedUpload struct {
	UploadURL string `json:"uploadUrls"`
	Key       string `json:"key"`
}

func (s *UploadService) PresignUploads(ctx context.Context, userID string, images []ImageInput) ([]PresignedUpload, error) {
	if len(images) == 0 {
		return nil, ErrNoImages
	}

	uploads := make([]PresignedUpload, 0, len(images))
	for _, img := range images {
		fileName := path.Base(strings.TrimSpace(img.FileName))
		if fileName == "" || fileName == "." || fileName == "/" {
			return nil, ErrInvalidImage
		}
		key := fmt.Sprintf("users/%s/uploads/%s", userID, fileName)

		req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(s.bucket),
			Key:         aws.String(key),
			ContentType: aws.String(img.MimeType),
		}, func(opts *s3.PresignOptions) {
			opts.Expires = s.expiry
		})
		if err != nil {
			s.logger.Error("presign upload failed", zap.Error(err), zap.String("key", key))
			return nil, fmt.Errorf("presign upload: %w", err)
		}

		uploads = append(uploads, PresignedUpload{UploadURL: req.URL, Key: key})
	}
	return uploads, nil
}
