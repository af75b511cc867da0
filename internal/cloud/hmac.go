package cloud

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/playsync/internal/shared"
)

// HMACProvider signs URLs locally with a presigned-query scheme: the
// expiry and key id ride as query parameters and the signature covers
// method, object path, and expiry.
type HMACProvider struct {
	endpoint  string
	bucket    string
	accessKey string
	secretKey []byte
	ttl       time.Duration
	now       func() time.Time
}

// NewHMACProvider validates the descriptor and returns a local signer.
func NewHMACProvider(cfg shared.CloudConfig) (*HMACProvider, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("%w: hmac provider requires endpoint and bucket", shared.ErrInvalidConfig)
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("%w: hmac provider requires access_key and secret_key", shared.ErrInvalidConfig)
	}

	return &HMACProvider{
		endpoint:  strings.TrimRight(cfg.Endpoint, "/"),
		bucket:    cfg.Bucket,
		accessKey: cfg.AccessKey,
		secretKey: []byte(cfg.SecretKey),
		ttl:       cfg.SignTTL(),
		now:       time.Now,
	}, nil
}

// Sign issues a presigned GET URL for the object at cloudKey.
func (p *HMACProvider) Sign(ctx context.Context, cloudKey string) (*SignedURL, error) {
	if cloudKey == "" {
		return nil, fmt.Errorf("%w: empty cloud key", shared.ErrInvalidInput)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	expiresAt := p.now().Add(p.ttl)
	objectPath := p.bucket + "/" + strings.TrimLeft(cloudKey, "/")
	signature := p.signature(objectPath, expiresAt.Unix())

	q := url.Values{}
	q.Set("key_id", p.accessKey)
	q.Set("expires", strconv.FormatInt(expiresAt.Unix(), 10))
	q.Set("signature", signature)

	return &SignedURL{
		URL:       fmt.Sprintf("%s/%s?%s", p.endpoint, objectPath, q.Encode()),
		ExpiresAt: expiresAt,
	}, nil
}

func (p *HMACProvider) signature(objectPath string, expires int64) string {
	payload := fmt.Sprintf("GET\n%s\n%d", objectPath, expires)
	mac := hmac.New(sha256.New, p.secretKey)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}
