package handler

import (
	"context"
	"io"
	"sync"

	"github.com/amarkiccha/lead/config"
	"github.com/amarkiccha/lead/model"
	"github.com/amarkiccha/lead/service"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testPassword = "open-sesame"

type fakeGateway struct {
	mu        sync.Mutex
	leads     []model.Lead
	listErr   error
	appendErr error
	appended  []model.Lead
}

func (g *fakeGateway) ListLeads(context.Context) ([]model.Lead, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.listErr != nil {
		return nil, g.listErr
	}
	return service.SortByRecency(g.leads), nil
}

func (g *fakeGateway) AppendLead(_ context.Context, lead model.Lead) (*service.AppendAck, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.appendErr != nil {
		return nil, g.appendErr
	}
	g.appended = append(g.appended, lead)
	return &service.AppendAck{}, nil
}

func (g *fakeGateway) appendedLeads() []model.Lead {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]model.Lead(nil), g.appended...)
}

type recordingNotifier struct {
	leads chan model.Lead
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{leads: make(chan model.Lead, 4)}
}

func (n *recordingNotifier) NotifyNewLead(_ context.Context, lead model.Lead) error {
	n.leads <- lead
	return nil
}

type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	err     error
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (s *fakeStore) Upload(_ context.Context, objectName string, reader io.Reader, _ int64, contentType string) error {
	if s.err != nil {
		return s.err
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[objectName] = data
	s.types[objectName] = contentType
	return nil
}

func (s *fakeStore) PresignedURL(_ context.Context, objectName string) (string, error) {
	return "https://files.example.test/lead-exports/" + objectName + "?sig=1", nil
}

func testConfig() *config.Config {
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:         "test-secret",
			TokenExpireHours:  1,
			AdminPasswordHash: string(hash),
		},
		Capture: config.CaptureConfig{
			Timezone:           "UTC",
			RefreshDelayMillis: 3600 * 1000,
		},
		RateLimit: config.RateLimitConfig{
			RequestsPerMinute: 1000,
			SubmitsPerMinute:  1000,
		},
	}
}

func sampleLeads() []model.Lead {
	return []model.Lead{
		{ID: "1", Name: "Anna Field", ProjectName: "Tower", PhoneNumber: "555-0101", Date: "2026-02-24", Time: "09:15:00"},
		{ID: "2", Name: "Bob Stone", ProjectName: "Villa", PhoneNumber: "555-0102", Date: "2026-02-23", Time: "18:00:00"},
		{ID: "3", Name: "Diana Ray", ProjectName: "Tower", PhoneNumber: "555-0103", Date: "2026-02-24", Time: "11:40:00"},
	}
}
