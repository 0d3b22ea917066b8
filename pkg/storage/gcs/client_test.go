package gcs

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

type roundTripFunc func(*http.Request) *http.Response

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req), nil
}

func staticTokenSource(token string) *tokenSource {
	return &tokenSource{fetch: func(context.Context) (string, time.Time, error) {
		return token, time.Now().Add(time.Hour), nil
	}}
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{},
	}
}

func TestUploadSuccess(t *testing.T) {
	t.Parallel()

	object := "payment_screenshots/1_proof.png"
	payload := []byte{0x89, 0x50, 0x4e, 0x47}

	client := &Client{
		bucket:      "bucket",
		tokenSource: staticTokenSource("token"),
		httpClient: &http.Client{Transport: roundTripFunc(func(req *http.Request) *http.Response {
			if req.Method != http.MethodPost {
				t.Fatalf("expected POST, got %s", req.Method)
			}
			if req.URL.Path != "/upload/storage/v1/b/bucket/o" {
				t.Fatalf("unexpected path %s", req.URL.Path)
			}
			q := req.URL.Query()
			if q.Get("uploadType") != "media" {
				t.Fatalf("unexpected uploadType %q", q.Get("uploadType"))
			}
			if q.Get("name") != object {
				t.Fatalf("unexpected object name %q", q.Get("name"))
			}
			if req.Header.Get("Authorization") != "Bearer token" {
				t.Fatalf("unexpected auth %s", req.Header.Get("Authorization"))
			}
			if req.Header.Get("Content-Type") != "image/png" {
				t.Fatalf("unexpected content type %s", req.Header.Get("Content-Type"))
			}
			body, err := io.ReadAll(req.Body)
			if err != nil {
				t.Fatalf("read upload body: %v", err)
			}
			if string(body) != string(payload) {
				t.Fatalf("upload body mismatch")
			}
			return jsonResponse(http.StatusOK, `{"name":"`+object+`"}`)
		})},
	}

	got, err := client.Upload(context.Background(), object, "image/png", payload)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if got != "https://storage.googleapis.com/bucket/payment_screenshots/1_proof.png" {
		t.Fatalf("unexpected object url %q", got)
	}
}

func TestUploadDefaultsContentType(t *testing.T) {
	t.Parallel()

	client := &Client{
		bucket:      "bucket",
		tokenSource: staticTokenSource("token"),
		httpClient: &http.Client{Transport: roundTripFunc(func(req *http.Request) *http.Response {
			if req.Header.Get("Content-Type") != "application/octet-stream" {
				t.Fatalf("unexpected content type %s", req.Header.Get("Content-Type"))
			}
			return jsonResponse(http.StatusOK, `{}`)
		})},
	}

	if _, err := client.Upload(context.Background(), "payment_screenshots/raw", "", []byte("data")); err != nil {
		t.Fatalf("Upload: %v", err)
	}
}

func TestUploadFailureStatus(t *testing.T) {
	t.Parallel()

	client := &Client{
		bucket:      "bucket",
		tokenSource: staticTokenSource("token"),
		httpClient: &http.Client{Transport: roundTripFunc(func(req *http.Request) *http.Response {
			return jsonResponse(http.StatusForbidden, `{"error":"denied"}`)
		})},
	}

	_, err := client.Upload(context.Background(), "payment_screenshots/1_proof.png", "image/png", []byte("data"))
	if err == nil {
		t.Fatal("expected upload error")
	}
	if !strings.Contains(err.Error(), "gcs upload failed") {
		t.Fatalf("unexpected error %v", err)
	}
	if !strings.Contains(err.Error(), "denied") {
		t.Fatalf("response body missing from error: %v", err)
	}
}

func TestUploadRequiresObjectPath(t *testing.T) {
	t.Parallel()

	client := &Client{bucket: "bucket", tokenSource: staticTokenSource("token")}
	if _, err := client.Upload(context.Background(), "", "image/png", []byte("data")); err == nil {
		t.Fatal("expected error for empty object path")
	}

	var empty *Client
	if _, err := empty.Upload(context.Background(), "object", "image/png", []byte("data")); err == nil {
		t.Fatal("expected error for uninitialized client")
	}
}

func TestPingSuccess(t *testing.T) {
	t.Parallel()

	client := &Client{
		bucket:      "bucket",
		tokenSource: staticTokenSource("token"),
		httpClient: &http.Client{Transport: roundTripFunc(func(req *http.Request) *http.Response {
			if req.Method != http.MethodGet {
				t.Fatalf("expected GET, got %s", req.Method)
			}
			if req.URL.Path != "/storage/v1/b/bucket/o" {
				t.Fatalf("unexpected path %s", req.URL.Path)
			}
			if req.URL.Query().Get("maxResults") != "1" {
				t.Fatalf("unexpected maxResults %q", req.URL.Query().Get("maxResults"))
			}
			if req.Header.Get("Authorization") != "Bearer token" {
				t.Fatalf("unexpected auth %s", req.Header.Get("Authorization"))
			}
			return jsonResponse(http.StatusOK, `{"items":[]}`)
		})},
	}

	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestPingFailureStatus(t *testing.T) {
	t.Parallel()

	client := &Client{
		bucket:      "bucket",
		tokenSource: staticTokenSource("token"),
		httpClient: &http.Client{Transport: roundTripFunc(func(req *http.Request) *http.Response {
			return jsonResponse(http.StatusServiceUnavailable, "")
		})},
	}

	err := client.Ping(context.Background())
	if err == nil {
		t.Fatal("expected ping error")
	}
	if !strings.Contains(err.Error(), "gcs object check failed") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestObjectURLEscapesSegments(t *testing.T) {
	t.Parallel()

	client := &Client{bucket: "bucket"}
	got := client.ObjectURL("payment_screenshots/17 proof file.png")
	want := "https://storage.googleapis.com/bucket/payment_screenshots/17%20proof%20file.png"
	if got != want {
		t.Fatalf("ObjectURL = %q, want %q", got, want)
	}

	parsed, err := url.Parse(got)
	if err != nil {
		t.Fatalf("parse object url: %v", err)
	}
	if parsed.Host != "storage.googleapis.com" {
		t.Fatalf("unexpected host %s", parsed.Host)
	}
}

func TestTokenSourceReusesUnexpiredToken(t *testing.T) {
	t.Parallel()

	fetches := 0
	ts := &tokenSource{fetch: func(context.Context) (string, time.Time, error) {
		fetches++
		return "tok", time.Now().Add(time.Hour), nil
	}}

	for i := 0; i < 3; i++ {
		token, err := ts.Token(context.Background())
		if err != nil {
			t.Fatalf("Token: %v", err)
		}
		if token != "tok" {
			t.Fatalf("unexpected token %q", token)
		}
	}
	if fetches != 1 {
		t.Fatalf("expected a single fetch, got %d", fetches)
	}
}

func TestTokenSourceRefreshesNearExpiry(t *testing.T) {
	t.Parallel()

	fetches := 0
	ts := &tokenSource{fetch: func(context.Context) (string, time.Time, error) {
		fetches++
		// Expires inside the refresh margin, so every call refetches.
		return "tok", time.Now().Add(30 * time.Second), nil
	}}

	for i := 0; i < 2; i++ {
		if _, err := ts.Token(context.Background()); err != nil {
			t.Fatalf("Token: %v", err)
		}
	}
	if fetches != 2 {
		t.Fatalf("expected refetch near expiry, got %d fetches", fetches)
	}
}

func TestServiceAccountTokenExchange(t *testing.T) {
	t.Parallel()

	key := mustGenerateKey(t)
	pemKey := mustEncodePKCS8(t, key)

	var gotAssertion string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse token form: %v", err)
		}
		if r.Form.Get("grant_type") != "urn:ietf:params:oauth:grant-type:jwt-bearer" {
			t.Fatalf("unexpected grant_type %q", r.Form.Get("grant_type"))
		}
		gotAssertion = r.Form.Get("assertion")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"exchanged","expires_in":3600}`))
	}))
	defer server.Close()

	creds, err := json.Marshal(map[string]string{
		"client_email": "signer@example.com",
		"private_key":  pemKey,
		"token_uri":    server.URL,
	})
	if err != nil {
		t.Fatalf("marshal credentials: %v", err)
	}

	ts, err := newServiceAccountTokenSource(server.Client(), string(creds))
	if err != nil {
		t.Fatalf("newServiceAccountTokenSource: %v", err)
	}

	token, err := ts.Token(context.Background())
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if token != "exchanged" {
		t.Fatalf("unexpected token %q", token)
	}

	parts := strings.Split(gotAssertion, ".")
	if len(parts) != 3 {
		t.Fatalf("assertion is not a three-part jwt: %q", gotAssertion)
	}

	payloadBytes, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		t.Fatalf("decode assertion payload: %v", err)
	}
	var claims struct {
		Iss   string `json:"iss"`
		Scope string `json:"scope"`
		Aud   string `json:"aud"`
	}
	if err := json.Unmarshal(payloadBytes, &claims); err != nil {
		t.Fatalf("unmarshal assertion claims: %v", err)
	}
	if claims.Iss != "signer@example.com" {
		t.Fatalf("unexpected iss %q", claims.Iss)
	}
	if claims.Scope != scope {
		t.Fatalf("unexpected scope %q", claims.Scope)
	}
	if claims.Aud != server.URL {
		t.Fatalf("unexpected aud %q", claims.Aud)
	}

	rawSig, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		t.Fatalf("decode assertion signature: %v", err)
	}
	hash := sha256.Sum256([]byte(parts[0] + "." + parts[1]))
	if err := rsa.VerifyPKCS1v15(&key.PublicKey, crypto.SHA256, hash[:], rawSig); err != nil {
		t.Fatalf("verify assertion signature: %v", err)
	}
}

func TestServiceAccountTokenExchangeRejectsBadCredentials(t *testing.T) {
	t.Parallel()

	if _, err := newServiceAccountTokenSource(&http.Client{}, "not-json"); err == nil {
		t.Fatal("expected error for malformed credentials")
	}
	if _, err := newServiceAccountTokenSource(&http.Client{}, `{"client_email":"a@example.com"}`); err == nil {
		t.Fatal("expected error for missing private key")
	}
}

func TestServiceAccountTokenExchangeNonOKStatus(t *testing.T) {
	t.Parallel()

	key := mustGenerateKey(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad assertion", http.StatusUnauthorized)
	}))
	defer server.Close()

	creds, err := json.Marshal(map[string]string{
		"client_email": "signer@example.com",
		"private_key":  mustEncodePKCS8(t, key),
		"token_uri":    server.URL,
	})
	if err != nil {
		t.Fatalf("marshal credentials: %v", err)
	}

	ts, err := newServiceAccountTokenSource(server.Client(), string(creds))
	if err != nil {
		t.Fatalf("newServiceAccountTokenSource: %v", err)
	}

	if _, err := ts.Token(context.Background()); err == nil {
		t.Fatal("expected error for non-200 token response")
	}
}

func mustGenerateKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}
	return key
}

func mustEncodePKCS8(t *testing.T, key *rsa.PrivateKey) string {
	t.Helper()
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		t.Fatalf("marshal private key: %v", err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}))
}
