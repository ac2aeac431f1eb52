package peppol

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClientRegister(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/participants" {
			t.Errorf("expected /participants, got %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer key-1" {
			t.Errorf("unexpected authorization header %q", got)
		}
		var req ProviderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.ParticipantID != "9944:nl123456789b01" || req.Scheme != "9944" {
			t.Errorf("unexpected request %+v", req)
		}
		json.NewEncoder(w).Encode(ProviderState{ParticipantID: req.ParticipantID, Status: "pending"})
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", "key-1")
	state, err := client.Register(context.Background(), ProviderRequest{
		ParticipantID: "9944:nl123456789b01",
		Scheme:        "9944",
		LegalName:     "Acme BV",
		CountryCode:   "NL",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if state.Status != "pending" {
		t.Fatalf("expected pending, got %q", state.Status)
	}
}

func TestClientStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if r.URL.Path != "/participants/9944:nl123456789b01" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(ProviderState{ParticipantID: "9944:nl123456789b01", Status: "registered"})
	}))
	defer server.Close()

	state, err := NewClient(server.URL, "").Status(context.Background(), "9944:nl123456789b01")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if state.Status != "registered" {
		t.Fatalf("expected registered, got %q", state.Status)
	}
}

func TestClientDeregister(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("expected DELETE, got %s", r.Method)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	if err := NewClient(server.URL, "key-1").Deregister(context.Background(), "9944:nl123456789b01"); err != nil {
		t.Fatalf("deregister: %v", err)
	}
}

func TestClientErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte("participant already registered elsewhere"))
	}))
	defer server.Close()

	_, err := NewClient(server.URL, "key-1").Register(context.Background(), ProviderRequest{ParticipantID: "x"})
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "provider status 422") {
		t.Fatalf("expected the status in the error, got %v", err)
	}
	if !strings.Contains(err.Error(), "already registered") {
		t.Fatalf("expected the body snippet in the error, got %v", err)
	}
}
