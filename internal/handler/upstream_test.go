package handler

import (
	"net/http"
	"strings"
	"testing"
)

func TestRouter_OversizedUpstreamResponse_Returns502(t *testing.T) {
	tests := []struct {
		name     string
		size     int
		wantCode int
	}{
		{"within limit", 64, http.StatusOK},
		{"exactly at limit", 128, http.StatusOK},
		{"over limit", 129, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := `{"data":"` + strings.Repeat("x", tt.size-len(`{"data":""}`)) + `"}`
			up := newFakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(body))
			})

			u := NewUpstream(up.server.URL, nil, nil, nil)
			u.maxBody = 128
			router := NewRouter(&RouterDeps{
				CORSAllowedOrigin: "http://localhost:3000",
				ServiceKey:        "svc-key",
				Proxy:             NewProxyHandler(u, nil),
			})

			w := doRequest(router, http.MethodGet, "/api/classroom/status", "", bearer)
			if w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantCode)
			}
			if tt.wantCode == http.StatusBadGateway {
				if msg := decodeMap(t, w)["message"]; msg != "Unable to reach status service" {
					t.Errorf("message = %v", msg)
				}
				return
			}
			if w.Body.String() != body {
				t.Errorf("上流のボディがそのまま中継されていない: %q", w.Body.String())
			}
		})
	}
}
