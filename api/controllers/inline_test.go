package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/stockdeck/api/middleware"
	"github.com/angelmondragon/stockdeck/internal/items"
	"github.com/angelmondragon/stockdeck/pkg/auth"
)

type stubEditor struct {
	session *items.EditSession

	started      []items.EditField
	startErr     error
	committed    []string
	commitErr    error
	imageUploads []items.ImageUpload
	cancelled    int

	result *items.Item
}

func (s *stubEditor) Start(ctx context.Context, isAdmin bool, itemID uuid.UUID, field items.EditField, initialValue string) error {
	if s.startErr != nil {
		return s.startErr
	}
	s.started = append(s.started, field)
	s.session = &items.EditSession{ItemID: itemID, Field: field, PendingValue: initialValue}
	return nil
}

func (s *stubEditor) SetPending(value string) {
	if s.session != nil {
		s.session.PendingValue = value
	}
}

func (s *stubEditor) Active() *items.EditSession {
	if s.session == nil {
		return nil
	}
	copied := *s.session
	return &copied
}

func (s *stubEditor) Cancel() {
	s.session = nil
	s.cancelled++
}

func (s *stubEditor) Commit(ctx context.Context, value string) (*items.Item, error) {
	s.session = nil
	if s.commitErr != nil {
		return nil, s.commitErr
	}
	s.committed = append(s.committed, value)
	return s.result, nil
}

func (s *stubEditor) CommitImage(ctx context.Context, upload items.ImageUpload) (*items.Item, error) {
	s.session = nil
	if s.commitErr != nil {
		return nil, s.commitErr
	}
	s.imageUploads = append(s.imageUploads, upload)
	return s.result, nil
}

func adminImageRequest(t *testing.T, id uuid.UUID) *http.Request {
	t.Helper()

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("image", "front.png")
	if err != nil {
		t.Fatalf("failed to build form: %v", err)
	}
	if _, err := part.Write([]byte("png-bytes")); err != nil {
		t.Fatalf("failed to write form file: %v", err)
	}
	if err := form.Close(); err != nil {
		t.Fatalf("failed to close form: %v", err)
	}

	req := httptest.NewRequest(http.MethodPut, "/v1/items/"+id.String()+"/image", &body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("itemId", id.String())
	ctx := middleware.WithUserID(req.Context(), uuid.NewString())
	ctx = middleware.WithRole(ctx, string(auth.RoleAdmin))
	return req.WithContext(context.WithValue(ctx, chi.RouteCtxKey, routeCtx))
}

func TestReplaceItemImageRunsThroughEditSession(t *testing.T) {
	t.Parallel()

	it := items.Item{ID: uuid.New(), Name: "Widget"}
	editor := &stubEditor{result: &it}
	notify := &stubNotifier{}

	rec := httptest.NewRecorder()
	ReplaceItemImage(editor, notify, 4<<20, testControllerLogger()).ServeHTTP(rec, adminImageRequest(t, it.ID))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(editor.started) != 1 || editor.started[0] != items.EditFieldImage {
		t.Fatalf("expected an image edit session, got %+v", editor.started)
	}
	if len(editor.imageUploads) != 1 || editor.imageUploads[0].FileName != "front.png" {
		t.Fatalf("expected upload committed through the editor, got %+v", editor.imageUploads)
	}
	if len(notify.successes) != 1 {
		t.Fatalf("expected success notification, got %+v", notify)
	}
}

func TestReplaceItemImageRequiresFile(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	req := httptest.NewRequest(http.MethodPut, "/v1/items/"+id.String()+"/image", strings.NewReader(""))
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("itemId", id.String())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	editor := &stubEditor{}
	rec := httptest.NewRecorder()
	ReplaceItemImage(editor, &stubNotifier{}, 4<<20, testControllerLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if len(editor.started) != 0 {
		t.Fatal("expected no session without an upload")
	}
}

func TestInlineEditRejectsImageField(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/items/"+id.String()+"/inline", strings.NewReader(`{"field":"image","value":"x"}`))
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("itemId", id.String())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	editor := &stubEditor{}
	rec := httptest.NewRecorder()
	InlineEditItem(editor, &stubNotifier{}, testControllerLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if len(editor.started) != 0 {
		t.Fatal("expected image field to be rejected before a session starts")
	}
}

func TestActiveInlineEditReportsSession(t *testing.T) {
	t.Parallel()

	editor := &stubEditor{}
	rec := httptest.NewRecorder()
	ActiveInlineEdit(editor, testControllerLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/items/inline", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 while idle, got %d", rec.Code)
	}

	editor.session = &items.EditSession{ItemID: uuid.New(), Field: items.EditFieldQuantity, PendingValue: "5"}
	rec = httptest.NewRecorder()
	ActiveInlineEdit(editor, testControllerLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/items/inline", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var envelope struct {
		Data items.EditSession `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if envelope.Data.Field != items.EditFieldQuantity || envelope.Data.PendingValue != "5" {
		t.Fatalf("unexpected session: %+v", envelope.Data)
	}
}

func TestUpdateInlineEditValueReplacesPending(t *testing.T) {
	t.Parallel()

	editor := &stubEditor{session: &items.EditSession{ItemID: uuid.New(), Field: items.EditFieldPrice, PendingValue: "1"}}
	req := httptest.NewRequest(http.MethodPut, "/v1/items/inline", strings.NewReader(`{"value":"2.50"}`))

	rec := httptest.NewRecorder()
	UpdateInlineEditValue(editor, testControllerLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if editor.session.PendingValue != "2.50" {
		t.Fatalf("expected pending value replaced, got %q", editor.session.PendingValue)
	}
}

func TestCancelInlineEditDiscardsSession(t *testing.T) {
	t.Parallel()

	editor := &stubEditor{session: &items.EditSession{ItemID: uuid.New(), Field: items.EditFieldQuantity}}
	rec := httptest.NewRecorder()
	CancelInlineEdit(editor, testControllerLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/v1/items/inline", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if editor.cancelled != 1 || editor.session != nil {
		t.Fatal("expected session discarded")
	}
}
