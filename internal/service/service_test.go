package service

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/eventatlas/eventatlas-backend/internal/models"
	"github.com/eventatlas/eventatlas-backend/internal/repository"
	"github.com/eventatlas/eventatlas-backend/pkg/countries"
	"github.com/eventatlas/eventatlas-backend/pkg/database"
	"github.com/eventatlas/eventatlas-backend/pkg/geoip"
)

var testTable = countries.NewTable()

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if err := database.RunMigrations(db); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return db
}

type fakeStorage struct {
	uploads   map[string][]byte
	deleted   []string
	uploadErr error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{uploads: map[string][]byte{}}
}

func (f *fakeStorage) Upload(key string, src io.Reader, contentType string) error {
	if f.uploadErr != nil {
		return f.uploadErr
	}
	data, err := io.ReadAll(src)
	if err != nil {
		return err
	}
	f.uploads[key] = data
	return nil
}

func (f *fakeStorage) Delete(key string) error {
	f.deleted = append(f.deleted, key)
	delete(f.uploads, key)
	return nil
}

func (f *fakeStorage) PublicURL(key string) string {
	return "https://cdn.test/" + key
}

type fakeGeo struct {
	country string
	lat     float64
	lon     float64
	err     error
}

func (g fakeGeo) Country(string) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	return g.country, nil
}

func (g fakeGeo) LatLon(string) (float64, float64, error) {
	if g.err != nil {
		return 0, 0, g.err
	}
	return g.lat, g.lon, nil
}

func newEventService(t *testing.T, db *gorm.DB, pictures *fakeStorage, geo geoip.Resolver) *EventService {
	t.Helper()
	return NewEventService(
		repository.NewEventRepository(db),
		repository.NewUserRepository(db),
		pictures,
		geo,
		testTable,
		nil,
		zap.NewNop(),
	)
}

func newModerationService(t *testing.T, db *gorm.DB) *ModerationService {
	t.Helper()
	return NewModerationService(
		repository.NewEventRepository(db),
		repository.NewUserRepository(db),
		newFakeStorage(),
		testTable,
		nil,
		zap.NewNop(),
	)
}

func seedUser(t *testing.T, db *gorm.DB, email string, staff bool) *models.User {
	t.Helper()
	user := &models.User{
		FullName: "Test User",
		Email:    email,
		Password: "irrelevant-hash",
		IsStaff:  staff,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func seedEvent(t *testing.T, db *gorm.DB, creatorID uint, countryCode string, status models.EventStatus) *models.Event {
	t.Helper()
	event := &models.Event{
		Title:       "Seeded Event",
		Slug:        "seeded-event",
		Description: "seeded",
		CountryCode: countryCode,
		Status:      status,
		PubDate:     time.Now().Add(48 * time.Hour),
		CreatorID:   creatorID,
	}
	if err := db.Create(event).Error; err != nil {
		t.Fatalf("seed event: %v", err)
	}
	return event
}

// fileHeader builds a real multipart file part so FileHeader.Open works.
func fileHeader(t *testing.T, filename, contentType string, size int) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="picture"; filename=%q`, filename))
	header.Set("Content-Type", contentType)

	part, err := w.CreatePart(header)
	if err != nil {
		t.Fatalf("create multipart part: %v", err)
	}
	if _, err := part.Write(bytes.Repeat([]byte("a"), size)); err != nil {
		t.Fatalf("write multipart part: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(32 << 20)
	if err != nil {
		t.Fatalf("read multipart form: %v", err)
	}
	files := form.File["picture"]
	if len(files) != 1 {
		t.Fatalf("expected 1 file part, got %d", len(files))
	}
	return files[0]
}
