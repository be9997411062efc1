package service

import (
	"errors"
	"fmt"
	"mime/multipart"
	"path"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventatlas/eventatlas-backend/internal/models"
	"github.com/eventatlas/eventatlas-backend/internal/repository"
	"github.com/eventatlas/eventatlas-backend/pkg/countries"
	"github.com/eventatlas/eventatlas-backend/pkg/geoip"
	"github.com/eventatlas/eventatlas-backend/pkg/storage"
	"github.com/eventatlas/eventatlas-backend/pkg/utils"
)

// Pictures above this size are rejected before anything is written.
const MaxPictureBytes = 256 * 1024

// Fallback coordinates used when the client IP cannot be resolved.
const (
	DefaultLatitude  = 58.08695
	DefaultLongitude = 5.58121
)

var (
	ErrImageTooLarge = errors.New("the image is just a bit too big for us, it must be up to 256 kb")
	ErrBadImageType  = errors.New("unsupported image type")
	ErrPictureStore  = errors.New("could not store the uploaded picture")
)

type EventService struct {
	events   *repository.EventRepository
	users    *repository.UserRepository
	pictures storage.PictureStorage
	geo      geoip.Resolver
	table    *countries.Table
	mailer   Mailer
	logger   *zap.Logger
}

func NewEventService(
	events *repository.EventRepository,
	users *repository.UserRepository,
	pictures storage.PictureStorage,
	geo geoip.Resolver,
	table *countries.Table,
	mailer Mailer,
	logger *zap.Logger,
) *EventService {
	return &EventService{
		events:   events,
		users:    users,
		pictures: pictures,
		geo:      geo,
		table:    table,
		mailer:   mailer,
		logger:   logger,
	}
}

// Submit creates a pending event for the authenticated user. When the form
// email differs from the account email, the account email is updated first;
// both writes are best effort with no rollback between them.
func (s *EventService) Submit(userID uint, req models.EventRequest, picture *multipart.FileHeader) (*models.Event, error) {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return nil, err
	}

	pictureKey := ""
	if picture != nil {
		pictureKey, err = s.storePicture(picture)
		if err != nil {
			return nil, err
		}
	}

	s.syncUserEmail(user, req.UserEmail)

	event := &models.Event{
		Title:       req.Title,
		Slug:        utils.Slugify(req.Title),
		Description: req.Description,
		Location:    req.Location,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		CountryCode: req.CountryCode,
		Picture:     pictureKey,
		Status:      models.EventStatusPending,
		PubDate:     parsePubDate(req.PubDate),
		Audience:    req.Audience,
		Theme:       req.Theme,
		CreatorID:   user.ID,
	}

	created, err := s.events.Create(event)
	if err != nil {
		return nil, err
	}

	if s.mailer != nil {
		go func() {
			_ = s.mailer.SendSubmissionReceived(req.UserEmail, user.FullName, created)
		}()
	}

	s.withPictureURL(created)
	return created, nil
}

// Update edits an existing event. A nil picture leaves the stored picture
// reference untouched; the picture column is omitted from the update
// entirely rather than written empty.
func (s *EventService) Update(eventID, userID uint, req models.EventRequest, picture *multipart.FileHeader) (*models.Event, error) {
	event, err := s.events.GetByID(eventID)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(userID)
	if err != nil {
		return nil, err
	}

	s.syncUserEmail(user, req.UserEmail)

	fields := map[string]interface{}{
		"title":        req.Title,
		"description":  req.Description,
		"location":     req.Location,
		"latitude":     req.Latitude,
		"longitude":    req.Longitude,
		"country_code": req.CountryCode,
		"audience":     req.Audience,
		"theme":        req.Theme,
	}
	if req.PubDate != "" {
		fields["pub_date"] = parsePubDate(req.PubDate)
	}
	if req.Title != event.Title {
		fields["slug"] = utils.Slugify(req.Title)
	}
	replacedKey := ""
	if picture != nil {
		key, err := s.storePicture(picture)
		if err != nil {
			return nil, err
		}
		fields["picture"] = key
		replacedKey = event.Picture
	}

	if err := s.events.UpdateFields(event.ID, fields); err != nil {
		return nil, err
	}

	// The superseded object is orphaned once the row points elsewhere.
	if replacedKey != "" {
		if err := s.pictures.Delete(replacedKey); err != nil {
			s.logger.Warn("failed to delete replaced picture",
				zap.String("key", replacedKey),
				zap.Error(err),
			)
		}
	}

	return s.GetByID(event.ID)
}

func (s *EventService) GetByID(id uint) (*models.Event, error) {
	event, err := s.events.GetByID(id)
	if err != nil {
		return nil, err
	}
	s.withPictureURL(event)
	return event, nil
}

// ApprovedByCountry lists every approved event for a country with no date
// window applied.
func (s *EventService) ApprovedByCountry(countryCode string) ([]models.Event, error) {
	events, err := s.events.GetApproved(countryCode, false, true)
	if err != nil {
		return nil, err
	}
	return s.withPictureURLs(events), nil
}

// Created lists everything the user ever submitted, any status, past
// events included.
func (s *EventService) Created(userID uint) ([]models.Event, error) {
	events, err := s.events.GetCreated(userID)
	if err != nil {
		return nil, err
	}
	return s.withPictureURLs(events), nil
}

// Index assembles the map/list page payload. The route country wins over
// the IP-derived one; geo failures fall back to the default coordinates.
func (s *EventService) Index(routeCountry, clientIP string) (*models.IndexResponse, error) {
	country := s.ResolveCountry(routeCountry, clientIP)
	lat, lon := s.Locate(clientIP)

	allApproved, err := s.events.GetApproved("", false, false)
	if err != nil {
		return nil, err
	}
	allApproved = s.withPictureURLs(allApproved)
	mapEvents := make([]models.MapEvent, 0, len(allApproved))
	for _, e := range allApproved {
		mapEvents = append(mapEvents, models.NewMapEvent(e))
	}

	latest, err := s.events.GetApproved(country.CountryCode, true, false)
	if err != nil {
		return nil, err
	}

	return &models.IndexResponse{
		LatestEvents: s.withPictureURLs(latest),
		MapEvents:    mapEvents,
		Latitude:     lat,
		Longitude:    lon,
		Country:      country,
		AllCountries: s.table.List(),
	}, nil
}

// Search with no form submitted defaults to the approved events of the
// resolved country (query parameter first, then client IP), the same set
// the by-country listing serves. A submitted form replaces the result set
// with the filtered query and takes the display country from the form.
func (s *EventService) Search(req *models.SearchRequest, queryCountry, clientIP string) (*models.SearchResponse, error) {
	if req == nil {
		country := s.ResolveCountry(queryCountry, clientIP)
		events, err := s.events.GetApproved(country.CountryCode, false, true)
		if err != nil {
			return nil, err
		}
		return &models.SearchResponse{Events: s.withPictureURLs(events), CountryCode: country.CountryCode}, nil
	}

	events, err := s.events.GetFiltered(req.Query, req.Country, req.Theme, req.Audience)
	if err != nil {
		return nil, err
	}
	return &models.SearchResponse{Events: s.withPictureURLs(events), CountryCode: req.Country}, nil
}

// ResolveCountry prefers the route-supplied code, then the IP-derived one.
// An empty result means no country could be resolved.
func (s *EventService) ResolveCountry(routeCountry, clientIP string) models.CountryContext {
	if routeCountry != "" {
		return models.CountryContext{CountryCode: routeCountry}
	}
	code, err := s.geo.Country(clientIP)
	if err != nil {
		return models.CountryContext{}
	}
	return models.CountryContext{CountryCode: code}
}

// Locate resolves the client coordinates, falling back to the default pair
// when geo resolution is unavailable. Failures are never surfaced.
func (s *EventService) Locate(clientIP string) (float64, float64) {
	lat, lon, err := s.geo.LatLon(clientIP)
	if err != nil {
		return DefaultLatitude, DefaultLongitude
	}
	return lat, lon
}

func (s *EventService) storePicture(fh *multipart.FileHeader) (string, error) {
	if fh.Size > MaxPictureBytes {
		return "", ErrImageTooLarge
	}

	contentType := fh.Header.Get("Content-Type")
	if !isSupportedImageType(contentType) {
		return "", ErrBadImageType
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPictureStore, err)
	}
	defer src.Close()

	key := fmt.Sprintf("events/%s%s", uuid.New().String(), path.Ext(fh.Filename))
	if err := s.pictures.Upload(key, src, contentType); err != nil {
		return "", fmt.Errorf("%w: %v", ErrPictureStore, err)
	}
	return key, nil
}

// withPictureURL resolves the stored key into the public URL served to
// clients. Events without a picture stay untouched.
func (s *EventService) withPictureURL(e *models.Event) {
	if e.Picture != "" {
		e.PictureURL = s.pictures.PublicURL(e.Picture)
	}
}

func (s *EventService) withPictureURLs(events []models.Event) []models.Event {
	for i := range events {
		s.withPictureURL(&events[i])
	}
	return events
}

// syncUserEmail mirrors a changed contact email onto the account before
// the event write. Best effort; a failure is logged and the submission
// proceeds.
func (s *EventService) syncUserEmail(user *models.User, submitted string) {
	if submitted == "" || submitted == user.Email {
		return
	}
	if err := s.users.UpdateEmail(user.ID, submitted); err != nil {
		s.logger.Warn("failed to sync user email from event form",
			zap.Uint("user_id", user.ID),
			zap.Error(err),
		)
		return
	}
	user.Email = submitted
}

// parsePubDate reads the form's event date; validation has already checked
// the layout. An absent date means the event runs on submission day.
func parsePubDate(raw string) time.Time {
	if raw == "" {
		return time.Now()
	}
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Now()
	}
	return parsed
}

func isSupportedImageType(contentType string) bool {
	supported := map[string]bool{
		"image/jpeg": true,
		"image/png":  true,
		"image/gif":  true,
		"image/webp": true,
	}
	return supported[contentType]
}
