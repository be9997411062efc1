package service

import (
	"errors"
	"testing"
	"time"

	"github.com/eventatlas/eventatlas-backend/internal/models"
	"github.com/eventatlas/eventatlas-backend/pkg/geoip"
)

func validRequest(email string) models.EventRequest {
	return models.EventRequest{
		Title:       "Code Week Oslo",
		Description: "Learn to code",
		Location:    "Oslo, Norway",
		Latitude:    59.91,
		Longitude:   10.75,
		CountryCode: "NO",
		Audience:    "kids",
		Theme:       "programming",
		PubDate:     "2030-10-01",
		UserEmail:   email,
	}
}

func TestSubmitCreatesPendingEvent(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "creator@example.com", false)
	svc := newEventService(t, db, newFakeStorage(), fakeGeo{})

	event, err := svc.Submit(user.ID, validRequest(user.Email), nil)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if event.Status != models.EventStatusPending {
		t.Fatalf("expected status pending, got %q", event.Status)
	}
	if event.CreatorID != user.ID {
		t.Fatalf("expected creator %d, got %d", user.ID, event.CreatorID)
	}
	if event.Slug != "code-week-oslo" {
		t.Fatalf("expected slug %q, got %q", "code-week-oslo", event.Slug)
	}

	stored, err := svc.GetByID(event.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.Title != "Code Week Oslo" || stored.CountryCode != "NO" {
		t.Fatalf("stored event mismatch: %+v", stored)
	}
}

func TestSubmitStoresPictureAtSizeLimit(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "creator@example.com", false)
	pictures := newFakeStorage()
	svc := newEventService(t, db, pictures, fakeGeo{})

	picture := fileHeader(t, "poster.png", "image/png", MaxPictureBytes)

	event, err := svc.Submit(user.ID, validRequest(user.Email), picture)
	if err != nil {
		t.Fatalf("submit with boundary-size picture: %v", err)
	}
	if event.Picture == "" {
		t.Fatalf("expected picture reference to be set")
	}
	if got := len(pictures.uploads[event.Picture]); got != MaxPictureBytes {
		t.Fatalf("expected %d stored bytes, got %d", MaxPictureBytes, got)
	}
	if want := "https://cdn.test/" + event.Picture; event.PictureURL != want {
		t.Fatalf("expected picture URL %q, got %q", want, event.PictureURL)
	}
}

func TestSubmitSurfacesStorageFailure(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "creator@example.com", false)
	pictures := newFakeStorage()
	pictures.uploadErr = errors.New("bucket unavailable")
	svc := newEventService(t, db, pictures, fakeGeo{})

	picture := fileHeader(t, "poster.png", "image/png", 1024)

	if _, err := svc.Submit(user.ID, validRequest(user.Email), picture); !errors.Is(err, ErrPictureStore) {
		t.Fatalf("expected ErrPictureStore, got %v", err)
	}

	var count int64
	db.Model(&models.Event{}).Count(&count)
	if count != 0 {
		t.Fatalf("expected no event persisted, found %d", count)
	}
}

func TestSubmitRejectsOversizePicture(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "creator@example.com", false)
	pictures := newFakeStorage()
	svc := newEventService(t, db, pictures, fakeGeo{})

	picture := fileHeader(t, "poster.png", "image/png", MaxPictureBytes+1)

	if _, err := svc.Submit(user.ID, validRequest(user.Email), picture); !errors.Is(err, ErrImageTooLarge) {
		t.Fatalf("expected ErrImageTooLarge, got %v", err)
	}

	var count int64
	db.Model(&models.Event{}).Count(&count)
	if count != 0 {
		t.Fatalf("expected no event persisted, found %d", count)
	}
	if len(pictures.uploads) != 0 {
		t.Fatalf("expected no stored pictures, found %d", len(pictures.uploads))
	}
}

func TestSubmitRejectsUnsupportedImageType(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "creator@example.com", false)
	svc := newEventService(t, db, newFakeStorage(), fakeGeo{})

	picture := fileHeader(t, "poster.txt", "text/plain", 128)

	if _, err := svc.Submit(user.ID, validRequest(user.Email), picture); !errors.Is(err, ErrBadImageType) {
		t.Fatalf("expected ErrBadImageType, got %v", err)
	}
}

func TestSubmitSyncsChangedEmail(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "old@example.com", false)
	svc := newEventService(t, db, newFakeStorage(), fakeGeo{})

	if _, err := svc.Submit(user.ID, validRequest("new@example.com"), nil); err != nil {
		t.Fatalf("submit: %v", err)
	}

	var reloaded models.User
	if err := db.First(&reloaded, user.ID).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if reloaded.Email != "new@example.com" {
		t.Fatalf("expected synced email, got %q", reloaded.Email)
	}
}

func TestSubmitLeavesMatchingEmailAlone(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "same@example.com", false)
	svc := newEventService(t, db, newFakeStorage(), fakeGeo{})

	if _, err := svc.Submit(user.ID, validRequest("same@example.com"), nil); err != nil {
		t.Fatalf("submit: %v", err)
	}

	var reloaded models.User
	if err := db.First(&reloaded, user.ID).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if reloaded.Email != "same@example.com" {
		t.Fatalf("email changed unexpectedly to %q", reloaded.Email)
	}
}

func TestUpdateWithoutPictureKeepsReference(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "creator@example.com", false)
	svc := newEventService(t, db, newFakeStorage(), fakeGeo{})

	event := seedEvent(t, db, user.ID, "NO", models.EventStatusPending)
	if err := db.Model(event).Update("picture", "events/original.png").Error; err != nil {
		t.Fatalf("seed picture: %v", err)
	}

	updated, err := svc.Update(event.ID, user.ID, validRequest(user.Email), nil)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Picture != "events/original.png" {
		t.Fatalf("picture reference changed: %q", updated.Picture)
	}
	if updated.Title != "Code Week Oslo" {
		t.Fatalf("title not updated: %q", updated.Title)
	}
}

func TestUpdateWithPictureReplacesReference(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "creator@example.com", false)
	pictures := newFakeStorage()
	svc := newEventService(t, db, pictures, fakeGeo{})

	event := seedEvent(t, db, user.ID, "NO", models.EventStatusPending)
	if err := db.Model(event).Update("picture", "events/original.png").Error; err != nil {
		t.Fatalf("seed picture: %v", err)
	}

	picture := fileHeader(t, "new.png", "image/png", 1024)
	updated, err := svc.Update(event.ID, user.ID, validRequest(user.Email), picture)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Picture == "" || updated.Picture == "events/original.png" {
		t.Fatalf("expected new picture reference, got %q", updated.Picture)
	}
	if _, ok := pictures.uploads[updated.Picture]; !ok {
		t.Fatalf("new picture not stored")
	}
	if len(pictures.deleted) != 1 || pictures.deleted[0] != "events/original.png" {
		t.Fatalf("expected the replaced picture to be deleted, got %v", pictures.deleted)
	}
}

func TestUpdateWithoutPictureDeletesNothing(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "creator@example.com", false)
	pictures := newFakeStorage()
	svc := newEventService(t, db, pictures, fakeGeo{})

	event := seedEvent(t, db, user.ID, "NO", models.EventStatusPending)
	if err := db.Model(event).Update("picture", "events/original.png").Error; err != nil {
		t.Fatalf("seed picture: %v", err)
	}

	if _, err := svc.Update(event.ID, user.ID, validRequest(user.Email), nil); err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(pictures.deleted) != 0 {
		t.Fatalf("expected no deletions, got %v", pictures.deleted)
	}
}

func TestUpdateRejectsOversizePictureAndKeepsEvent(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "creator@example.com", false)
	svc := newEventService(t, db, newFakeStorage(), fakeGeo{})

	event := seedEvent(t, db, user.ID, "NO", models.EventStatusPending)
	if err := db.Model(event).Update("picture", "events/original.png").Error; err != nil {
		t.Fatalf("seed picture: %v", err)
	}

	picture := fileHeader(t, "huge.png", "image/png", MaxPictureBytes+1)
	if _, err := svc.Update(event.ID, user.ID, validRequest(user.Email), picture); !errors.Is(err, ErrImageTooLarge) {
		t.Fatalf("expected ErrImageTooLarge, got %v", err)
	}

	reloaded, err := svc.GetByID(event.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Picture != "events/original.png" {
		t.Fatalf("picture changed after failed update: %q", reloaded.Picture)
	}
	if reloaded.Title != "Seeded Event" {
		t.Fatalf("title changed after failed update: %q", reloaded.Title)
	}
}

func TestResolveCountryPrefersRouteCode(t *testing.T) {
	db := newTestDB(t)
	svc := newEventService(t, db, newFakeStorage(), fakeGeo{country: "SE"})

	country := svc.ResolveCountry("NO", "198.51.100.7")
	if country.CountryCode != "NO" {
		t.Fatalf("expected NO, got %q", country.CountryCode)
	}
}

func TestResolveCountryFallsBackToIP(t *testing.T) {
	db := newTestDB(t)
	svc := newEventService(t, db, newFakeStorage(), fakeGeo{country: "SE"})

	country := svc.ResolveCountry("", "198.51.100.7")
	if country.CountryCode != "SE" {
		t.Fatalf("expected SE, got %q", country.CountryCode)
	}
}

func TestResolveCountryUnresolvable(t *testing.T) {
	db := newTestDB(t)
	svc := newEventService(t, db, newFakeStorage(), fakeGeo{err: geoip.ErrUnresolvable})

	country := svc.ResolveCountry("", "203.0.113.5")
	if country.CountryCode != "" {
		t.Fatalf("expected empty country, got %q", country.CountryCode)
	}
}

func TestLocateFallsBackToDefaultCoordinates(t *testing.T) {
	db := newTestDB(t)
	svc := newEventService(t, db, newFakeStorage(), fakeGeo{err: geoip.ErrUnresolvable})

	lat, lon := svc.Locate("203.0.113.5")
	if lat != DefaultLatitude || lon != DefaultLongitude {
		t.Fatalf("expected default coordinates, got (%v, %v)", lat, lon)
	}
}

func TestLocatePassesResolvedCoordinates(t *testing.T) {
	db := newTestDB(t)
	svc := newEventService(t, db, newFakeStorage(), fakeGeo{lat: 59.33, lon: 18.06})

	lat, lon := svc.Locate("198.51.100.7")
	if lat != 59.33 || lon != 18.06 {
		t.Fatalf("expected resolved coordinates, got (%v, %v)", lat, lon)
	}
}

func TestIndexScopesLatestToResolvedCountry(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "creator@example.com", false)
	svc := newEventService(t, db, newFakeStorage(), fakeGeo{country: "NO", lat: 59.91, lon: 10.75})

	seedEvent(t, db, user.ID, "NO", models.EventStatusApproved)
	seedEvent(t, db, user.ID, "SE", models.EventStatusApproved)
	seedEvent(t, db, user.ID, "NO", models.EventStatusPending)

	resp, err := svc.Index("", "198.51.100.7")
	if err != nil {
		t.Fatalf("index: %v", err)
	}

	if resp.Country.CountryCode != "NO" {
		t.Fatalf("expected country NO, got %q", resp.Country.CountryCode)
	}
	if len(resp.LatestEvents) != 1 || resp.LatestEvents[0].CountryCode != "NO" {
		t.Fatalf("expected one NO event in latest, got %+v", resp.LatestEvents)
	}
	// The map spans every approved event regardless of country.
	if len(resp.MapEvents) != 2 {
		t.Fatalf("expected 2 map events, got %d", len(resp.MapEvents))
	}
	if len(resp.AllCountries) == 0 {
		t.Fatalf("expected country list in index payload")
	}
}

func TestSearchWithoutFormMatchesApprovedByCountry(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "creator@example.com", false)
	svc := newEventService(t, db, newFakeStorage(), fakeGeo{country: "NO"})

	seedEvent(t, db, user.ID, "NO", models.EventStatusApproved)
	seedEvent(t, db, user.ID, "SE", models.EventStatusApproved)

	resp, err := svc.Search(nil, "", "198.51.100.7")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if resp.CountryCode != "NO" {
		t.Fatalf("expected NO context, got %q", resp.CountryCode)
	}
	if len(resp.Events) != 1 || resp.Events[0].CountryCode != "NO" {
		t.Fatalf("expected the NO event only, got %+v", resp.Events)
	}
}

func TestSearchDefaultMatchesByCountryListing(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "creator@example.com", false)
	svc := newEventService(t, db, newFakeStorage(), fakeGeo{country: "NO"})

	past := seedEvent(t, db, user.ID, "NO", models.EventStatusApproved)
	if err := db.Model(past).Update("pub_date", time.Now().Add(-72*time.Hour)).Error; err != nil {
		t.Fatalf("backdate event: %v", err)
	}
	seedEvent(t, db, user.ID, "NO", models.EventStatusApproved)

	byCountry, err := svc.ApprovedByCountry("NO")
	if err != nil {
		t.Fatalf("approved by country: %v", err)
	}
	search, err := svc.Search(nil, "", "198.51.100.7")
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	if len(byCountry) != 2 || len(search.Events) != len(byCountry) {
		t.Fatalf("result sets diverge: by-country %d, empty search %d", len(byCountry), len(search.Events))
	}
	seen := map[uint]bool{}
	for _, e := range byCountry {
		seen[e.ID] = true
	}
	for _, e := range search.Events {
		if !seen[e.ID] {
			t.Fatalf("event %d in the search set but not in the by-country set", e.ID)
		}
	}
}

func TestSearchHonorsCountryQuery(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "creator@example.com", false)
	svc := newEventService(t, db, newFakeStorage(), fakeGeo{country: "NO"})

	seedEvent(t, db, user.ID, "NO", models.EventStatusApproved)
	se := seedEvent(t, db, user.ID, "SE", models.EventStatusApproved)

	resp, err := svc.Search(nil, "SE", "198.51.100.7")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if resp.CountryCode != "SE" {
		t.Fatalf("expected the query country to win over the IP country, got %q", resp.CountryCode)
	}
	if len(resp.Events) != 1 || resp.Events[0].ID != se.ID {
		t.Fatalf("expected the SE event only, got %+v", resp.Events)
	}
}

func TestSearchFormReplacesResultSet(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "creator@example.com", false)
	svc := newEventService(t, db, newFakeStorage(), fakeGeo{country: "NO"})

	se := seedEvent(t, db, user.ID, "SE", models.EventStatusApproved)
	if err := db.Model(se).Updates(map[string]interface{}{"theme": "robotics", "audience": "teens"}).Error; err != nil {
		t.Fatalf("tag event: %v", err)
	}
	seedEvent(t, db, user.ID, "NO", models.EventStatusApproved)

	resp, err := svc.Search(&models.SearchRequest{Country: "SE", Theme: "robotics"}, "", "198.51.100.7")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if resp.CountryCode != "SE" {
		t.Fatalf("expected SE context from the form, got %q", resp.CountryCode)
	}
	if len(resp.Events) != 1 || resp.Events[0].ID != se.ID {
		t.Fatalf("expected the tagged SE event, got %+v", resp.Events)
	}
}
