package items

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	pkgerrors "github.com/angelmondragon/stockdeck/pkg/errors"
	"github.com/angelmondragon/stockdeck/pkg/logger"
)

const stubPublicPrefix = "https://storage.googleapis.com/test-bucket/"

type stubRepo struct {
	listItems []Item
	listErr   error

	found   *Item
	findErr error

	insertErr error
	inserted  *Item

	updateErr     error
	updated       *Item
	updatedFields map[string]any

	deleteErr  error
	deletedIDs []uuid.UUID
}

func (s *stubRepo) ListAll(ctx context.Context) ([]Item, error) {
	return s.listItems, s.listErr
}

func (s *stubRepo) FindByID(ctx context.Context, id uuid.UUID) (*Item, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.found, nil
}

func (s *stubRepo) Insert(ctx context.Context, item *Item) (*Item, error) {
	if s.insertErr != nil {
		return nil, s.insertErr
	}
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.InsertedAt.IsZero() {
		item.InsertedAt = time.Now().UTC()
	}
	s.inserted = item
	return item, nil
}

func (s *stubRepo) Update(ctx context.Context, id uuid.UUID, fields map[string]any) (*Item, error) {
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	s.updatedFields = fields
	return s.updated, nil
}

func (s *stubRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deletedIDs = append(s.deletedIDs, id)
	return nil
}

type stubStorage struct {
	uploadErr     error
	uploadedPaths []string

	deleteErr    error
	deletedPaths []string
}

func (s *stubStorage) Upload(ctx context.Context, objectPath, contentType string, body io.Reader) (string, error) {
	if s.uploadErr != nil {
		return "", s.uploadErr
	}
	s.uploadedPaths = append(s.uploadedPaths, objectPath)
	return stubPublicPrefix + objectPath, nil
}

func (s *stubStorage) Delete(ctx context.Context, objectPath string) error {
	s.deletedPaths = append(s.deletedPaths, objectPath)
	return s.deleteErr
}

func (s *stubStorage) ObjectPathFromPublicURL(raw string) string {
	if !strings.HasPrefix(raw, stubPublicPrefix) {
		return ""
	}
	return strings.TrimPrefix(raw, stubPublicPrefix)
}

type stubFeed struct {
	events     []ChangeEvent
	publishErr error
}

func (s *stubFeed) Publish(ctx context.Context, event ChangeEvent) error {
	if s.publishErr != nil {
		return s.publishErr
	}
	s.events = append(s.events, event)
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func newTestGateway(t *testing.T, repo *stubRepo, storage *stubStorage, feed *stubFeed, cache *Cache) *Gateway {
	t.Helper()
	gw, err := NewGateway(repo, storage, feed, cache, testLogger(), nil, "images")
	if err != nil {
		t.Fatalf("failed to build gateway: %v", err)
	}
	return gw
}

func TestCreateRejectsInvalidDraft(t *testing.T) {
	t.Parallel()

	repo := &stubRepo{}
	gw := newTestGateway(t, repo, &stubStorage{}, &stubFeed{}, NewCache())

	_, err := gw.Create(context.Background(), CreateInput{Name: "   "})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if repo.inserted != nil {
		t.Fatal("expected no insert for invalid draft")
	}
}

func TestCreateUploadFailureAbortsBeforeInsert(t *testing.T) {
	t.Parallel()

	repo := &stubRepo{}
	storage := &stubStorage{uploadErr: errors.New("bucket down")}
	feed := &stubFeed{}
	gw := newTestGateway(t, repo, storage, feed, NewCache())

	_, err := gw.Create(context.Background(), CreateInput{
		Name:  "Widget",
		Image: &ImageUpload{FileName: "w.png", ContentType: "image/png", Body: strings.NewReader("img")},
	})
	if err == nil {
		t.Fatal("expected upload failure to surface")
	}
	if repo.inserted != nil {
		t.Fatal("expected no record write after failed upload")
	}
	if len(feed.events) != 0 {
		t.Fatal("expected no feed event after failed upload")
	}
}

func TestCreateInsertFailureCleansUpUploadedObject(t *testing.T) {
	t.Parallel()

	repo := &stubRepo{insertErr: errors.New("db down")}
	storage := &stubStorage{}
	gw := newTestGateway(t, repo, storage, &stubFeed{}, NewCache())

	_, err := gw.Create(context.Background(), CreateInput{
		Name:  "Widget",
		Image: &ImageUpload{FileName: "w.png", ContentType: "image/png", Body: strings.NewReader("img")},
	})
	if err == nil {
		t.Fatal("expected insert failure to surface")
	}
	if len(storage.uploadedPaths) != 1 || len(storage.deletedPaths) != 1 {
		t.Fatalf("expected uploaded object to be deleted, uploads=%v deletes=%v", storage.uploadedPaths, storage.deletedPaths)
	}
	if storage.deletedPaths[0] != storage.uploadedPaths[0] {
		t.Fatalf("cleanup deleted wrong object: %s", storage.deletedPaths[0])
	}
}

func TestCreateSuccessUpdatesCacheAndPublishes(t *testing.T) {
	t.Parallel()

	repo := &stubRepo{}
	feed := &stubFeed{}
	cache := NewCache()
	gw := newTestGateway(t, repo, &stubStorage{}, feed, cache)

	price := decimal.NewFromFloat(4.20)
	created, err := gw.Create(context.Background(), CreateInput{Name: "Widget", Quantity: 3, Price: &price})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := cache.Get(created.ID); !ok {
		t.Fatal("expected created item in cache")
	}
	if len(feed.events) != 1 || feed.events[0].Type != EventInsert {
		t.Fatalf("expected one INSERT event, got %+v", feed.events)
	}
}

func TestUpdateReplacesImageBestEffortOldDelete(t *testing.T) {
	t.Parallel()

	oldURL := stubPublicPrefix + "images/old.png"
	existing := testItem("pictured", 5, time.Now().UTC())
	existing.ImageURL = &oldURL

	updated := existing.Clone()
	repo := &stubRepo{found: &existing, updated: &updated}
	storage := &stubStorage{deleteErr: errors.New("transient")}
	feed := &stubFeed{}
	cache := seededCache(existing)
	gw := newTestGateway(t, repo, storage, feed, cache)

	_, err := gw.Update(context.Background(), existing.ID, UpdateInput{
		Image: &ImageUpload{FileName: "new.png", ContentType: "image/png", Body: strings.NewReader("img")},
	})
	if err != nil {
		t.Fatalf("old-image delete failure must not block the update: %v", err)
	}

	if len(storage.deletedPaths) != 1 || storage.deletedPaths[0] != "images/old.png" {
		t.Fatalf("expected old object delete attempt, got %v", storage.deletedPaths)
	}
	if len(storage.uploadedPaths) != 1 {
		t.Fatalf("expected new object upload, got %v", storage.uploadedPaths)
	}
	if _, ok := repo.updatedFields["image_url"]; !ok {
		t.Fatal("expected image_url in update fields")
	}
	if len(feed.events) != 1 || feed.events[0].Type != EventUpdate {
		t.Fatalf("expected UPDATE event, got %+v", feed.events)
	}
	if feed.events[0].Old == nil {
		t.Fatal("expected UPDATE event to carry old row")
	}
}

func TestUpdateMissingItemMapsToNotFound(t *testing.T) {
	t.Parallel()

	existing := testItem("vanishing", 5, time.Now().UTC())
	repo := &stubRepo{found: &existing, updateErr: gorm.ErrRecordNotFound}
	gw := newTestGateway(t, repo, &stubStorage{}, &stubFeed{}, seededCache(existing))

	qty := 7
	_, err := gw.Update(context.Background(), existing.ID, UpdateInput{Quantity: &qty})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDeleteRollsBackCacheOnStoreFailure(t *testing.T) {
	t.Parallel()

	existing := testItem("keeper", 5, time.Now().UTC())
	repo := &stubRepo{found: &existing, deleteErr: errors.New("db down")}
	feed := &stubFeed{}
	cache := seededCache(existing)
	gw := newTestGateway(t, repo, &stubStorage{}, feed, cache)

	if err := gw.Delete(context.Background(), existing.ID); err == nil {
		t.Fatal("expected delete failure to surface")
	}

	if _, ok := cache.Get(existing.ID); !ok {
		t.Fatal("expected item restored after failed delete")
	}
	if len(feed.events) != 0 {
		t.Fatal("expected no feed event after failed delete")
	}
}

func TestDeleteSuccessCleansUpImageAndPublishes(t *testing.T) {
	t.Parallel()

	imageURL := stubPublicPrefix + "images/item.png"
	existing := testItem("goner", 5, time.Now().UTC())
	existing.ImageURL = &imageURL

	repo := &stubRepo{found: &existing}
	storage := &stubStorage{}
	feed := &stubFeed{}
	cache := seededCache(existing)
	gw := newTestGateway(t, repo, storage, feed, cache)

	if err := gw.Delete(context.Background(), existing.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cache.Len() != 0 {
		t.Fatal("expected item removed from cache")
	}
	if len(storage.deletedPaths) != 1 || storage.deletedPaths[0] != "images/item.png" {
		t.Fatalf("expected image cleanup, got %v", storage.deletedPaths)
	}
	if len(feed.events) != 1 || feed.events[0].Type != EventDelete {
		t.Fatalf("expected DELETE event, got %+v", feed.events)
	}
}

func TestLoadInstallsCollectionSorted(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	older := testItem("older", 1, base)
	newer := testItem("newer", 2, base.Add(time.Hour))
	repo := &stubRepo{listItems: []Item{older, newer}}
	cache := NewCache()
	gw := newTestGateway(t, repo, &stubStorage{}, &stubFeed{}, cache)

	if err := gw.Load(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := cache.Items()
	if len(got) != 2 || got[0].ID != newer.ID {
		t.Fatalf("expected sorted load, got %+v", got)
	}
}
