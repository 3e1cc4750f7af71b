package http

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"hunter/internal/domain"
	"hunter/internal/metrics"
	"hunter/internal/service"
)

type mockPresigner struct {
	keys []string
}

func (m *mockPresigner) PresignPutObject(_ context.Context, input *s3.PutObjectInput, _ ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	key := aws.ToString(input.Key)
	m.keys = append(m.keys, key)
	return &v4.PresignedHTTPRequest{
		URL:    "https://s3.example.com/" + key + "?signed",
		Method: http.MethodPut,
	}, nil
}

func setupUploadRouter(t *testing.T) (*gin.Engine, *service.TokenService, *mockPresigner) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	presigner := &mockPresigner{}
	uploads := service.NewUploadService(zap.NewNop(), presigner, "hunter-s3-bucket")
	tokens := service.NewTokenService("test-secret", time.Hour, 24*time.Hour)
	collector := metrics.NewCollector(prometheus.NewRegistry())
	h := NewUploadHandler(zap.NewNop(), uploads)

	r := gin.New()
	r.POST("/getPresignedUrl", JWTAuthMiddleware(tokens, collector), h.Presign)
	return r, tokens, presigner
}

func TestUploads_Presign(t *testing.T) {
	r, tokens, presigner := setupUploadRouter(t)
	pair, err := tokens.GeneratePair(domain.User{ID: "user-1", Email: "user@example.com"})
	if err != nil {
		t.Fatalf("generate pair: %v", err)
	}

	rec := authedRequest(t, r, http.MethodPost, "/getPresignedUrl", pair.AccessToken, map[string]any{
		"images": []map[string]string{
			{"fileName": "shot.png", "mimeType": "image/png"},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if len(presigner.keys) != 1 || presigner.keys[0] != "users/user-1/uploads/shot.png" {
		t.Fatalf("unexpected object keys: %v", presigner.keys)
	}

	body := decodeBody(t, rec)
	uploads, ok := body["uploads"].([]any)
	if !ok || len(uploads) != 1 {
		t.Fatalf("expected one upload, got %v", body["uploads"])
	}
	first := uploads[0].(map[string]any)
	if first["uploadUrls"] == "" || first["uploadUrls"] == nil {
		t.Fatalf("expected presigned URL, got %v", first)
	}
}

func TestUploads_NoImages(t *testing.T) {
	r, tokens, _ := setupUploadRouter(t)
	pair, err := tokens.GeneratePair(domain.User{ID: "user-1", Email: "user@example.com"})
	if err != nil {
		t.Fatalf("generate pair: %v", err)
	}

	rec := authedRequest(t, r, http.MethodPost, "/getPresignedUrl", pair.AccessToken, map[string]any{
		"images": []map[string]string{},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestUploads_PathTraversalStripped(t *testing.T) {
	r, tokens, presigner := setupUploadRouter(t)
	pair, err := tokens.GeneratePair(domain.User{ID: "user-1", Email: "user@example.com"})
	if err != nil {
		t.Fatalf("generate pair: %v", err)
	}

	rec := authedRequest(t, r, http.MethodPost, "/getPresignedUrl", pair.AccessToken, map[string]any{
		"images": []map[string]string{
			{"fileName": "../../etc/passwd", "mimeType": "image/png"},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if len(presigner.keys) != 1 || presigner.keys[0] != "users/user-1/uploads/passwd" {
		t.Fatalf("expected traversal to be stripped, got %v", presigner.keys)
	}
}
