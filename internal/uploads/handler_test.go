package uploads

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"ledgerly-backend/internal/cashflow"
	"ledgerly-backend/internal/contacts"
	"ledgerly-backend/internal/documents"
	"ledgerly-backend/internal/shared/storage/object"
	"ledgerly-backend/internal/shared/storage/object/local"
	"ledgerly-backend/internal/shared/util"
	"ledgerly-backend/internal/usage"
)

type fakePresigner struct {
	putKeys []string
}

func (f *fakePresigner) PresignGet(ctx context.Context, storageKey string, ttl time.Duration) (string, error) {
	return "https://signed.test/get/" + storageKey, nil
}

func (f *fakePresigner) PresignPut(ctx context.Context, storageKey string, contentType string, ttl time.Duration) (string, error) {
	f.putKeys = append(f.putKeys, storageKey)
	return "https://signed.test/put/" + storageKey, nil
}

func newDocsService(t *testing.T) (*documents.Service, object.ObjectStore) {
	t.Helper()
	store := local.New(t.TempDir())
	svc := &documents.Service{
		Store:    store,
		Repo:     documents.NewMemoryRepo(),
		Contacts: contacts.NewService(contacts.NewMemoryRepo()),
		Cashflow: cashflow.NewService(cashflow.NewMemoryRepo()),
		Usage:    usage.NewService(0),
	}
	return svc, store
}

func newRouter(h *Handler, workspaceID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	group := router.Group("/", func(c *gin.Context) {
		c.Set("userId", "user-1")
		c.Set("workspaceId", workspaceID)
		c.Next()
	})
	h.RegisterRoutes(group)
	return router
}

func postJSON(t *testing.T, router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestPresignIssuesWorkspaceScopedKey(t *testing.T) {
	docs, _ := newDocsService(t)
	presigner := &fakePresigner{}
	h := &Handler{Presigner: presigner, Docs: docs}
	router := newRouter(h, "ws-1")

	resp := postJSON(t, router, "/uploads/presign", presignRequest{
		FileName:    "invoice.pdf",
		ContentType: "application/pdf",
		SizeBytes:   2048,
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var out presignResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !strings.HasPrefix(out.UploadURL, "https://signed.test/put/") {
		t.Fatalf("unexpected upload url %q", out.UploadURL)
	}
	if !strings.HasPrefix(out.StorageKey, util.HashScopeKey("ws-1")+"/") {
		t.Fatalf("expected workspace-scoped key, got %q", out.StorageKey)
	}
	if !strings.HasSuffix(out.StorageKey, "_invoice.pdf") {
		t.Fatalf("expected sanitized file name in key, got %q", out.StorageKey)
	}
	if out.ExpiresInSeconds != int64(presignExpires.Seconds()) {
		t.Fatalf("expected %d expiry seconds, got %d", int64(presignExpires.Seconds()), out.ExpiresInSeconds)
	}
	if len(presigner.putKeys) != 1 {
		t.Fatalf("expected one presign call, got %d", len(presigner.putKeys))
	}
}

func TestPresignHonorsConfiguredTTL(t *testing.T) {
	docs, _ := newDocsService(t)
	h := &Handler{Presigner: &fakePresigner{}, Docs: docs, TTL: time.Minute}
	router := newRouter(h, "ws-1")

	resp := postJSON(t, router, "/uploads/presign", presignRequest{
		FileName:    "invoice.pdf",
		ContentType: "application/pdf",
		SizeBytes:   2048,
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var out presignResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.ExpiresInSeconds != 60 {
		t.Fatalf("expected 60 expiry seconds, got %d", out.ExpiresInSeconds)
	}
}

func TestPresignRejectsDisallowedContentType(t *testing.T) {
	docs, _ := newDocsService(t)
	h := &Handler{Presigner: &fakePresigner{}, Docs: docs}
	router := newRouter(h, "ws-1")

	resp := postJSON(t, router, "/uploads/presign", presignRequest{
		FileName:    "archive.zip",
		ContentType: "application/zip",
		SizeBytes:   2048,
	})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestPresignRejectsOversizedFile(t *testing.T) {
	docs, _ := newDocsService(t)
	h := &Handler{Presigner: &fakePresigner{}, Docs: docs}
	router := newRouter(h, "ws-1")

	resp := postJSON(t, router, "/uploads/presign", presignRequest{
		FileName:    "invoice.pdf",
		ContentType: "application/pdf",
		SizeBytes:   maxUploadBytes + 1,
	})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestPresignUnavailableOnLocalStore(t *testing.T) {
	docs, store := newDocsService(t)
	h := NewHandler(store, docs, 0)
	router := newRouter(h, "ws-1")

	resp := postJSON(t, router, "/uploads/presign", presignRequest{
		FileName:    "invoice.pdf",
		ContentType: "application/pdf",
		SizeBytes:   2048,
	})
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.Code)
	}
}

func TestCompleteRegistersDocument(t *testing.T) {
	docs, store := newDocsService(t)
	h := NewHandler(store, docs, 0)
	router := newRouter(h, "ws-1")

	key := util.HashScopeKey("ws-1") + "/existing_invoice.pdf"
	saver, ok := store.(object.KeySaver)
	if !ok {
		t.Fatal("local store should accept caller keys")
	}
	if _, err := saver.SaveWithKey(context.Background(), key, "application/pdf", strings.NewReader("%PDF-1.4 payload")); err != nil {
		t.Fatalf("seed object: %v", err)
	}

	resp := postJSON(t, router, "/uploads/complete", completeRequest{
		FileName:   "invoice.pdf",
		StorageKey: key,
		SizeBytes:  16,
	})
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}

	var out documents.RecordResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.DocumentID == "" {
		t.Fatal("expected a document id")
	}
	if out.FileName != "invoice.pdf" {
		t.Fatalf("expected file name invoice.pdf, got %q", out.FileName)
	}

	rec, err := docs.GetRecord(context.Background(), "ws-1", out.DocumentID)
	if err != nil {
		t.Fatalf("fetch registered document: %v", err)
	}
	if rec.Document.StorageKey != key {
		t.Fatalf("expected storage key %q, got %q", key, rec.Document.StorageKey)
	}
	if rec.Run == nil {
		t.Fatal("expected a pending ingestion run")
	}
}

func TestCompleteRejectsForeignKey(t *testing.T) {
	docs, store := newDocsService(t)
	h := NewHandler(store, docs, 0)
	router := newRouter(h, "ws-1")

	resp := postJSON(t, router, "/uploads/complete", completeRequest{
		FileName:   "invoice.pdf",
		StorageKey: util.HashScopeKey("ws-other") + "/existing_invoice.pdf",
		SizeBytes:  16,
	})
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}
}

func TestCompleteRejectsMissingObject(t *testing.T) {
	docs, store := newDocsService(t)
	h := NewHandler(store, docs, 0)
	router := newRouter(h, "ws-1")

	resp := postJSON(t, router, "/uploads/complete", completeRequest{
		FileName:   "invoice.pdf",
		StorageKey: util.HashScopeKey("ws-1") + "/never-uploaded_invoice.pdf",
		SizeBytes:  16,
	})
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.Code)
	}
}
