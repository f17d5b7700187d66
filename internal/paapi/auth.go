package paapi

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Signer produces AWS4-HMAC-SHA256 signed requests, the scheme the
// product-advertising API requires in place of eBay's OAuth2
// client-credentials flow. Signing is stateless per-request (no token
// cache is needed, unlike the OAuth flow it replaces).
type Signer struct {
	AccessKey string
	SecretKey string
	Region    string
	Service   string
}

// NewSigner constructs a Signer from PA-API credentials
// (config keys paapi.access_key, paapi.secret_key, paapi.region).
func NewSigner(accessKey, secretKey, region string) *Signer {
	return &Signer{AccessKey: accessKey, SecretKey: secretKey, Region: region, Service: "ProductAdvertisingAPI"}
}

// Sign mutates req in place, adding the Authorization, X-Amz-Date, and
// X-Amz-Content-Sha256 headers per the AWS Signature Version 4 scheme.
func (s *Signer) Sign(req *http.Request, payload []byte, now time.Time) error {
	amzDate := now.UTC().Format("20060102T150405Z")
	dateStamp := now.UTC().Format("20060102")

	payloadHash := sha256Hex(payload)
	req.Header.Set("X-Amz-Date", amzDate)
	req.Header.Set("X-Amz-Content-Sha256", payloadHash)
	req.Header.Set("Host", req.Host)

	canonicalHeaders, signedHeaders := canonicalizeHeaders(req)
	canonicalRequest := strings.Join([]string{
		req.Method,
		canonicalURI(req),
		"", // query string, PA-API requests carry params in the signed body
		canonicalHeaders,
		signedHeaders,
		payloadHash,
	}, "\n")

	credentialScope := fmt.Sprintf("%s/%s/%s/aws4_request", dateStamp, s.Region, s.Service)
	stringToSign := strings.Join([]string{
		"AWS4-HMAC-SHA256",
		amzDate,
		credentialScope,
		sha256Hex([]byte(canonicalRequest)),
	}, "\n")

	signingKey := s.deriveSigningKey(dateStamp)
	signature := hex.EncodeToString(hmacSHA256(signingKey, stringToSign))

	authHeader := fmt.Sprintf(
		"AWS4-HMAC-SHA256 Credential=%s/%s, SignedHeaders=%s, Signature=%s",
		s.AccessKey, credentialScope, signedHeaders, signature,
	)
	req.Header.Set("Authorization", authHeader)
	return nil
}

func (s *Signer) deriveSigningKey(dateStamp string) []byte {
	kDate := hmacSHA256([]byte("AWS4"+s.SecretKey), dateStamp)
	kRegion := hmacSHA256(kDate, s.Region)
	kService := hmacSHA256(kRegion, s.Service)
	return hmacSHA256(kService, "aws4_request")
}

func hmacSHA256(key []byte, data string) []byte {
	h := hmac.New(sha256.New, key)
	h.Write([]byte(data))
	return h.Sum(nil)
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func canonicalURI(req *http.Request) string {
	if req.URL.Path == "" {
		return "/"
	}
	return req.URL.Path
}

func canonicalizeHeaders(req *http.Request) (canonical, signed string) {
	headers := []string{"content-encoding", "host", "x-amz-date", "x-amz-content-sha256", "x-amz-target"}
	var canonicalBuilder strings.Builder
	var names []string
	for _, h := range headers {
		v := req.Header.Get(h)
		if h == "host" {
			v = req.Host
		}
		if v == "" {
			continue
		}
		canonicalBuilder.WriteString(h)
		canonicalBuilder.WriteString(":")
		canonicalBuilder.WriteString(strings.TrimSpace(v))
		canonicalBuilder.WriteString("\n")
		names = append(names, h)
	}
	return canonicalBuilder.String(), strings.Join(names, ";")
}
