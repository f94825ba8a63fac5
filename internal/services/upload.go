package services

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// UploadService issues short-lived authentication parameters for direct
// client-to-ImageKit uploads. The dashboard sends these straight to the CDN;
// the backend never sees the file.
type UploadService struct {
	privateKey string
	ttl        time.Duration
	now        func() time.Time
}

func NewUploadService(privateKey string, ttl time.Duration) *UploadService {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &UploadService{
		privateKey: privateKey,
		ttl:        ttl,
		now:        time.Now,
	}
}

type UploadAuthParams struct {
	Token     string `json:"token"`
	Expire    int64  `json:"expire"`
	Signature string `json:"signature"`
}

// AuthParams returns a fresh token, its expiry as unix seconds, and the
// ImageKit upload signature hex(HMAC-SHA1(token + expire, privateKey)).
func (s *UploadService) AuthParams() UploadAuthParams {
	token := uuid.New().String()
	expire := s.now().Add(s.ttl).Unix()

	mac := hmac.New(sha1.New, []byte(s.privateKey))
	mac.Write([]byte(token + strconv.FormatInt(expire, 10)))

	return UploadAuthParams{
		Token:     token,
		Expire:    expire,
		Signature: hex.EncodeToString(mac.Sum(nil)),
	}
}
