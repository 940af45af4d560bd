// Package storage signs S3 URLs for card files, thumbnails, and
// avatars, and queues preview renditions with the previews service.
// Objects are private in the bucket; every client-facing URL carries a
// query-string signature with a bounded lifetime.
package storage

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// maxUploadBytes caps browser uploads at the single-request S3 limit.
const maxUploadBytes = 5 << 30

// Signer produces time-limited signed URLs for objects in the bucket.
type Signer struct {
	accessKeyID string
	secretKey   string
	bucket      string
	expiresIn   time.Duration
	now         func() time.Time
}

// NewSigner creates a signer for a bucket. expiresIn bounds the lifetime
// of every signature it produces.
func NewSigner(accessKeyID, secretKey, bucket string, expiresIn time.Duration) *Signer {
	return &Signer{
		accessKeyID: accessKeyID,
		secretKey:   secretKey,
		bucket:      bucket,
		expiresIn:   expiresIn,
		now:         time.Now,
	}
}

// ExpiresIn returns the configured signature lifetime.
func (s *Signer) ExpiresIn() time.Duration {
	return s.expiresIn
}

// Sign returns a signed GET URL for an object path. The path may be a
// bare key or a full URL pointing into the bucket; anything else is
// returned unchanged.
func (s *Signer) Sign(path string) string {
	return s.SignWithDisposition(path, "")
}

// SignWithDisposition signs like Sign and additionally pins the
// response-content-disposition header, used to force downloads.
func (s *Signer) SignWithDisposition(path, disposition string) string {
	key := s.objectKey(path)
	if key == "" {
		return path
	}

	expires := s.now().Add(s.expiresIn).Unix()

	// AWS signature v2 query-string auth: sign the canonical string
	// GET\n\n\n<expires>\n<resource> with the secret key.
	resource := fmt.Sprintf("/%s/%s", s.bucket, key)
	if disposition != "" {
		resource += "?response-content-disposition=" + disposition
	}
	stringToSign := fmt.Sprintf("GET\n\n\n%d\n%s", expires, resource)

	mac := hmac.New(sha1.New, []byte(s.secretKey))
	mac.Write([]byte(stringToSign))
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	q := url.Values{}
	q.Set("AWSAccessKeyId", s.accessKeyID)
	q.Set("Expires", fmt.Sprintf("%d", expires))
	q.Set("Signature", signature)
	if disposition != "" {
		q.Set("response-content-disposition", disposition)
	}

	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s?%s", s.bucket, key, q.Encode())
}

// objectKey extracts the object key from a bare key or a URL into the
// bucket. Returns "" when the path does not belong to the bucket.
func (s *Signer) objectKey(path string) string {
	if path == "" {
		return ""
	}
	if !strings.Contains(path, "://") {
		return strings.TrimPrefix(path, "/")
	}

	u, err := url.Parse(path)
	if err != nil {
		return ""
	}
	host := u.Hostname()
	switch {
	case host == s.bucket+".s3.amazonaws.com":
		return strings.TrimPrefix(u.Path, "/")
	case strings.HasSuffix(host, "s3.amazonaws.com"):
		// Path-style URL: /<bucket>/<key>
		trimmed := strings.TrimPrefix(u.Path, "/")
		if strings.HasPrefix(trimmed, s.bucket+"/") {
			return strings.TrimPrefix(trimmed, s.bucket+"/")
		}
	}
	return ""
}

// UploadPolicy is a signed S3 POST policy: the form fields a browser
// submits to the bucket alongside the file.
type UploadPolicy struct {
	Key         string
	URL         string
	AccessKeyID string
	ACL         string
	Policy      string
	Signature   string
	ExpiresAt   time.Time
}

// SignUploadPolicy signs a POST policy permitting one direct-to-bucket
// upload of the given key. The policy document is base64 encoded and
// signed the same way as query-string auth: HMAC-SHA1 with the secret
// key. Uploads stay private; reads go through Sign.
func (s *Signer) SignUploadPolicy(key, mimeType string) (*UploadPolicy, error) {
	expires := s.now().Add(s.expiresIn).UTC()

	doc := map[string]interface{}{
		"expiration": expires.Format("2006-01-02T15:04:05.000Z"),
		"conditions": []interface{}{
			map[string]string{"bucket": s.bucket},
			map[string]string{"key": key},
			map[string]string{"acl": "private"},
			[]interface{}{"starts-with", "$Content-Type", mimeType},
			[]interface{}{"content-length-range", 0, maxUploadBytes},
		},
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode upload policy: %w", err)
	}
	policy := base64.StdEncoding.EncodeToString(body)

	mac := hmac.New(sha1.New, []byte(s.secretKey))
	mac.Write([]byte(policy))
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return &UploadPolicy{
		Key:         key,
		URL:         fmt.Sprintf("https://%s.s3.amazonaws.com/", s.bucket),
		AccessKeyID: s.accessKeyID,
		ACL:         "private",
		Policy:      policy,
		Signature:   signature,
		ExpiresAt:   expires,
	}, nil
}

// GenerateFileKey returns a fresh upload key: uploads/<uuid>/<name>.
// With no name it returns a bare uploads/<uuid> prefix for the uploader
// to complete.
func GenerateFileKey(name string) string {
	if name == "" {
		return fmt.Sprintf("uploads/%s", uuid.New().String())
	}
	return fmt.Sprintf("uploads/%s/%s", uuid.New().String(), url.PathEscape(name))
}
