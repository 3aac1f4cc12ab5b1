package apiclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/classmate/internal/endpoint"
)

// --- モック定義 ---

type staticCredentials struct {
	token      string
	serviceKey string
}

func (s staticCredentials) Token(ctx context.Context) string      { return s.token }
func (s staticCredentials) ServiceKey(ctx context.Context) string { return s.serviceKey }

func newTestClient(serverURL string, creds Credentials) *Client {
	return NewClient(http.DefaultClient, endpoint.NewResolver(serverURL+"/upstream", serverURL), creds, nil)
}

// --- テスト ---

func TestClient_Do_ProxyTarget_SetsHeadersAndJSONBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/classroom/comment" {
			t.Errorf("path = %q, want /api/classroom/comment", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("method = %q, want POST", r.Method)
		}
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Errorf("Accept = %q", got)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("Content-Type = %q", got)
		}
		if got := r.Header.Get("x-cis-api-key"); got != "svc" {
			t.Errorf("x-cis-api-key = %q, want svc", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q, want Bearer tok", got)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["statusId"] != "s1" || body["content"] != "hello" {
			t.Errorf("body = %v", body)
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Write([]byte(`{"data":{"_id":"s1"}}`))
	}))
	defer server.Close()

	c := newTestClient(server.URL, staticCredentials{token: "tok", serviceKey: "svc"})
	raw, err := c.Do(context.Background(), Request{
		Path:   "/classroom/comment",
		Method: http.MethodPost,
		Body:   map[string]string{"content": "hello", "statusId": "s1"},
	})
	if err != nil {
		t.Fatalf("Do がエラーを返した: %v", err)
	}
	if string(raw) != `{"data":{"_id":"s1"}}` {
		t.Errorf("raw = %s", raw)
	}
}

func TestClient_Do_UpstreamTarget_UsesAPIKeyHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/upstream/profile" {
			t.Errorf("path = %q, want /upstream/profile", r.URL.Path)
		}
		if got := r.Header.Get("x-api-key"); got != "svc" {
			t.Errorf("x-api-key = %q, want svc", got)
		}
		if got := r.Header.Get("x-cis-api-key"); got != "" {
			t.Errorf("x-cis-api-key should not be set, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := newTestClient(server.URL, staticCredentials{token: "tok", serviceKey: "svc"})
	if _, err := c.Do(context.Background(), Request{Path: "/profile", Target: endpoint.TargetUpstream}); err != nil {
		t.Fatalf("Do がエラーを返した: %v", err)
	}
}

func TestClient_Do_NoTokenProceedsUnauthenticated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "" {
			t.Errorf("Authorization = %q, want empty", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Authentication token is missing"}`))
	}))
	defer server.Close()

	c := newTestClient(server.URL, staticCredentials{})
	_, err := c.Do(context.Background(), Request{Path: "/classroom/profile"})

	apiErr, ok := AsError(err)
	if !ok {
		t.Fatalf("err = %v, want *Error", err)
	}
	if apiErr.Status != http.StatusUnauthorized {
		t.Errorf("Status = %d, want 401", apiErr.Status)
	}
	if apiErr.Message != "Authentication token is missing" {
		t.Errorf("Message = %q", apiErr.Message)
	}
}

func TestClient_Do_SkipAuthOmitsBearer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "" {
			t.Errorf("Authorization = %q, want empty", got)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := newTestClient(server.URL, staticCredentials{token: "tok"})
	if _, err := c.Do(context.Background(), Request{Path: "/auth/signin", Method: http.MethodPost, SkipAuth: true}); err != nil {
		t.Fatalf("Do がエラーを返した: %v", err)
	}
}

func TestClient_Do_RawBodyPassesThrough(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Content-Type"); got != "text/plain" {
			t.Errorf("Content-Type = %q, want text/plain", got)
		}
		b, _ := io.ReadAll(r.Body)
		if string(b) != "raw-bytes" {
			t.Errorf("body = %q", b)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	c := newTestClient(server.URL, nil)
	_, err := c.Do(context.Background(), Request{
		Path:   "/upload",
		Method: http.MethodPost,
		Body:   RawBody("raw-bytes"),
		Header: http.Header{"Content-Type": []string{"text/plain"}},
	})
	if err != nil {
		t.Fatalf("Do がエラーを返した: %v", err)
	}
}

func TestClient_Do_NonJSONSuccessReturnsEmptyObject(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html>ok</html>"))
	}))
	defer server.Close()

	c := newTestClient(server.URL, nil)
	raw, err := c.Do(context.Background(), Request{Path: "/x"})
	if err != nil {
		t.Fatalf("Do がエラーを返した: %v", err)
	}
	if string(raw) != "{}" {
		t.Errorf("raw = %s, want {}", raw)
	}
}

func TestClient_Do_MalformedJSONDegradesToAbsent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("{broken"))
	}))
	defer server.Close()

	c := newTestClient(server.URL, nil)
	_, err := c.Do(context.Background(), Request{Path: "/x"})

	apiErr, ok := AsError(err)
	if !ok {
		t.Fatalf("err = %v, want *Error", err)
	}
	if apiErr.Message != "Bad Gateway" {
		t.Errorf("Message = %q, want status text", apiErr.Message)
	}
	if apiErr.Details != nil {
		t.Errorf("Details = %s, want nil", apiErr.Details)
	}
}

func TestClient_Do_ErrorCarriesDetails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"status not found","code":"NF"}`))
	}))
	defer server.Close()

	c := newTestClient(server.URL, nil)
	_, err := c.Do(context.Background(), Request{Path: "/x"})

	apiErr, _ := AsError(err)
	if apiErr == nil || apiErr.Kind != KindUpstream {
		t.Fatalf("err = %v, want upstream error", err)
	}
	if !strings.Contains(string(apiErr.Details), `"code":"NF"`) {
		t.Errorf("Details = %s", apiErr.Details)
	}
}

func TestClient_Do_TransportFailureIsNetworkUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	c := newTestClient(url, nil)
	_, err := c.Do(context.Background(), Request{Path: "/x"})

	if !IsNetworkUnreachable(err) {
		t.Fatalf("err = %v, want network unreachable", err)
	}
	if StatusOf(err) != 0 {
		t.Errorf("Status = %d, want 0", StatusOf(err))
	}
}

func TestCall_DecodesIntoType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[{"id":"a"},{"id":"b"}]}`))
	}))
	defer server.Close()

	type item struct {
		ID string `json:"id"`
	}
	type resp struct {
		Data []item `json:"data"`
	}

	c := newTestClient(server.URL, nil)
	got, err := Call[resp](context.Background(), c, Request{Path: "/x"})
	if err != nil {
		t.Fatalf("Call がエラーを返した: %v", err)
	}
	if len(got.Data) != 2 || got.Data[1].ID != "b" {
		t.Errorf("got = %+v", got)
	}
}

func TestNewHTTPClient_HasCookieJar(t *testing.T) {
	hc, err := NewHTTPClient(0)
	if err != nil {
		t.Fatalf("NewHTTPClient がエラーを返した: %v", err)
	}
	if hc.Jar == nil {
		t.Error("CookieJarが設定されていない")
	}
}
