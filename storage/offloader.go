package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"newsdesk/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	log "github.com/sirupsen/logrus"
)

const (
	// MaxMediaBytes caps how much of a source media file we download
	MaxMediaBytes = 20 << 20 // 20MB

	// Presign TTL bounds; a fresh URL is computed per request
	DefaultPresignTTL = time.Hour
	MinPresignTTL     = 5 * time.Minute
	MaxPresignTTL     = 24 * time.Hour
)

// OffloadResult carries the outcome of a best-effort media offload.
// Callers branch on Key/URL presence; Err is informational, never a
// reason to drop the entry being created.
type OffloadResult struct {
	Key string
	URL string
	Err error
}

// Offloader copies external media into object storage and resolves
// access URLs for stored keys.
type Offloader struct {
	client        *minio.Client
	httpClient    *http.Client
	bucket        string
	namespace     string
	publicBaseURL string
}

// NewOffloader builds an offloader from the storage config. When
// PublicBaseURL is set the bucket is treated as public and access URLs
// are plain joins; otherwise reads go through presigned URLs.
func NewOffloader(cfg *config.TomlStorage) (*Offloader, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating storage client: %w", err)
	}

	namespace := cfg.Namespace
	if namespace == "" {
		namespace = "media"
	}

	return &Offloader{
		client:        client,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		bucket:        cfg.Bucket,
		namespace:     namespace,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
	}, nil
}

// Offload downloads the source media and uploads it under a
// collision-free key. Fire-and-forget relative to entry creation:
// failures are reported in the result, never panicked or thrown.
func (o *Offloader) Offload(ctx context.Context, mediaURL string) OffloadResult {
	body, contentType, err := o.download(ctx, mediaURL)
	if err != nil {
		return OffloadResult{Err: err}
	}

	key := objectKey(o.namespace, mediaURL, contentType, body)

	_, err = o.client.PutObject(ctx, o.bucket, key,
		bytes.NewReader(body), int64(len(body)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return OffloadResult{Err: fmt.Errorf("upload %s: %w", key, err)}
	}

	accessURL, err := o.ResolveAccessURL(ctx, key, DefaultPresignTTL)
	if err != nil {
		// The object is stored; the caller still gets a usable key
		log.WithFields(log.Fields{
			"key":   key,
			"error": err,
		}).Warn("Stored media but failed to resolve access URL")
		return OffloadResult{Key: key}
	}

	return OffloadResult{Key: key, URL: accessURL}
}

// ResolveAccessURL returns a client-accessible URL for a stored key.
// Private buckets get a presigned GET with the ttl clamped to
// [5m, 24h], computed fresh per request: a cached stale signed URL is
// indistinguishable from a dead link to the caller.
func (o *Offloader) ResolveAccessURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if o.publicBaseURL != "" {
		return o.publicBaseURL + "/" + key, nil
	}

	signed, err := o.client.PresignedGetObject(ctx, o.bucket, key, ClampTTL(ttl), url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return signed.String(), nil
}

// ClampTTL bounds a presign ttl to the allowed range, defaulting when
// unset.
func ClampTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return DefaultPresignTTL
	}
	if ttl < MinPresignTTL {
		return MinPresignTTL
	}
	if ttl > MaxPresignTTL {
		return MaxPresignTTL
	}
	return ttl
}

func (o *Offloader) download(ctx context.Context, mediaURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("bad media url %s: %w", mediaURL, err)
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download %s: %w", mediaURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("download %s: unexpected status %d", mediaURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxMediaBytes))
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", mediaURL, err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	// Strip charset and similar parameters
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		contentType = mediaType
	}

	return body, contentType, nil
}

// objectKey derives a storage key that is a deterministic function of
// namespace, upload time, content hash and original extension:
// <namespace>/<unix-nano>-<8 hex of sha256><ext>. Unique across
// concurrent uploads without coordination.
func objectKey(namespace, mediaURL, contentType string, body []byte) string {
	sum := sha256.Sum256(body)
	return fmt.Sprintf("%s/%d-%x%s",
		namespace, time.Now().UnixNano(), sum[:4], extensionFor(mediaURL, contentType))
}

// extensionFor picks the original file extension, falling back to one
// derived from the content type.
func extensionFor(mediaURL, contentType string) string {
	if parsed, err := url.Parse(mediaURL); err == nil {
		if ext := path.Ext(parsed.Path); ext != "" && len(ext) <= 5 {
			return strings.ToLower(ext)
		}
	}

	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
			return exts[0]
		}
	}
	return ""
}
