package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/amarkiccha/lead/model"
	"github.com/amarkiccha/lead/service"
	"github.com/gin-gonic/gin"
)

type listResponse struct {
	Leads    []LeadView `json:"leads"`
	Projects []string   `json:"projects"`
	Total    int        `json:"total"`
	Matched  int        `json:"matched"`
}

var fixedNow = time.Date(2026, 2, 24, 20, 0, 0, 0, time.UTC)

func newTestLeadHandler(gw *fakeGateway, notifier service.Notifier, loc *time.Location) *LeadHandler {
	h := NewLeadHandler(gw, service.NewDirectory(gw), notifier, loc, time.Hour)
	h.now = func() time.Time { return fixedNow }
	return h
}

func serve(handler gin.HandlerFunc, method, target, body string) *httptest.ResponseRecorder {
	router := gin.New()
	router.Handle(method, "/leads", handler)

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func leadIDs(views []LeadView) []string {
	ids := make([]string, len(views))
	for i, v := range views {
		ids[i] = v.ID
	}
	return ids
}

func TestLeadHandlerList(t *testing.T) {
	h := newTestLeadHandler(&fakeGateway{leads: sampleLeads()}, nil, time.UTC)

	tests := []struct {
		name     string
		target   string
		expected []string
	}{
		{"no filters", "/leads", []string{"3", "1", "2"}},
		{"all projects", "/leads?project=all", []string{"3", "1", "2"}},
		{"name search", "/leads?name=BOB", []string{"2"}},
		{"project and date", "/leads?project=Tower&date=2026-02-24", []string{"3", "1"}},
		{"no match", "/leads?project=Annex", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(h.List, "GET", tt.target, "")
			if w.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", w.Code)
			}

			var resp listResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("Failed to parse response: %v", err)
			}

			got := leadIDs(resp.Leads)
			if len(got) != len(tt.expected) {
				t.Fatalf("Expected %v, got %v", tt.expected, got)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Fatalf("Expected %v, got %v", tt.expected, got)
				}
			}
			if resp.Total != 3 {
				t.Errorf("Expected total 3, got %d", resp.Total)
			}
			if resp.Matched != len(tt.expected) {
				t.Errorf("Expected matched %d, got %d", len(tt.expected), resp.Matched)
			}
			if len(resp.Projects) != 2 || resp.Projects[0] != "Tower" || resp.Projects[1] != "Villa" {
				t.Errorf("Unexpected projects %v", resp.Projects)
			}
		})
	}
}

func TestLeadHandlerListDisplayFormat(t *testing.T) {
	h := newTestLeadHandler(&fakeGateway{leads: []model.Lead{
		{ID: "1", Name: "Anna", Date: "2026-02-24", Time: "14:05:00"},
		{ID: "2", Name: "Bob", Date: "", Time: ""},
	}}, nil, time.UTC)

	w := serve(h.List, "GET", "/leads", "")

	var resp listResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp.Leads[0].DisplayDate != "Feb 24, 2026" || resp.Leads[0].DisplayTime != "2:05 PM" {
		t.Errorf("Unexpected display values %+v", resp.Leads[0])
	}
	if resp.Leads[0].Date != "2026-02-24" {
		t.Errorf("Expected raw date to be kept, got '%s'", resp.Leads[0].Date)
	}
	if resp.Leads[1].DisplayDate != "-" || resp.Leads[1].DisplayTime != "-" {
		t.Errorf("Expected placeholders, got %+v", resp.Leads[1])
	}
}

func TestLeadHandlerListInvalidDate(t *testing.T) {
	h := newTestLeadHandler(&fakeGateway{}, nil, time.UTC)

	w := serve(h.List, "GET", "/leads?date=24/02/2026", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestLeadHandlerListErrors(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		message   string
		retryable bool
	}{
		{"remote", &service.RemoteError{Kind: service.KindRemote, Op: "getLeads", Message: "quota exceeded"}, "quota exceeded", false},
		{"transport", &service.RemoteError{Kind: service.KindTransport, Op: "getLeads", Status: 503}, msgListRetry, true},
		{"malformed", &service.RemoteError{Kind: service.KindMalformed, Op: "getLeads"}, msgListRetry, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestLeadHandler(&fakeGateway{listErr: tt.err}, nil, time.UTC)

			w := serve(h.List, "GET", "/leads", "")
			if w.Code != http.StatusBadGateway {
				t.Fatalf("Expected status 502, got %d", w.Code)
			}

			var resp struct {
				Error     string `json:"error"`
				Retryable bool   `json:"retryable"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("Failed to parse response: %v", err)
			}
			if resp.Error != tt.message || resp.Retryable != tt.retryable {
				t.Errorf("Unexpected error response %+v", resp)
			}
		})
	}
}

func TestLeadHandlerSubmit(t *testing.T) {
	gw := &fakeGateway{}
	notifier := newRecordingNotifier()
	ist := time.FixedZone("IST", 5*3600+1800)
	h := newTestLeadHandler(gw, notifier, ist)

	w := serve(h.Submit, "POST", "/leads", `{"name":"  Ann  ","projectName":"Tower","phoneNumber":"+91 98765 43210"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	appended := gw.appendedLeads()
	if len(appended) != 1 {
		t.Fatalf("Expected 1 appended lead, got %d", len(appended))
	}
	want := model.Lead{Name: "Ann", ProjectName: "Tower", PhoneNumber: "+91 98765 43210", Date: "2026-02-25", Time: "01:30:00"}
	if appended[0] != want {
		t.Errorf("Expected %+v, got %+v", want, appended[0])
	}

	select {
	case got := <-notifier.leads:
		if got != want {
			t.Errorf("Expected notification for %+v, got %+v", want, got)
		}
	case <-time.After(time.Second):
		t.Error("Expected a new lead notification")
	}
}

func TestLeadHandlerSubmitValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing phone", `{"name":"Ann","projectName":"Tower"}`},
		{"blank name", `{"name":"   ","projectName":"Tower","phoneNumber":"555"}`},
		{"not json", `name=Ann`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &fakeGateway{}
			h := newTestLeadHandler(gw, nil, time.UTC)

			w := serve(h.Submit, "POST", "/leads", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d", w.Code)
			}
			if len(gw.appendedLeads()) != 0 {
				t.Error("Expected nothing to be appended")
			}
		})
	}
}

func TestLeadHandlerSubmitFailureOutcomeUnknown(t *testing.T) {
	gw := &fakeGateway{appendErr: &service.RemoteError{Kind: service.KindTransport, Op: "addLead", Status: 504}}
	notifier := newRecordingNotifier()
	h := newTestLeadHandler(gw, notifier, time.UTC)

	w := serve(h.Submit, "POST", "/leads", `{"name":"Ann","projectName":"Tower","phoneNumber":"555"}`)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("Expected status 502, got %d", w.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp["outcome"] != "unknown" || resp["error"] != msgAppendRetry {
		t.Errorf("Unexpected response %v", resp)
	}

	select {
	case <-notifier.leads:
		t.Error("Expected no notification after a failed append")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestLeadHandlerAdminCreate(t *testing.T) {
	gw := &fakeGateway{}
	h := newTestLeadHandler(gw, nil, time.UTC)

	w := serve(h.AdminCreate, "POST", "/leads", `{"name":"Ann","projectName":"Tower","phoneNumber":"555","date":"24/02/2026","time":"2:30 PM"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	appended := gw.appendedLeads()
	if len(appended) != 1 || appended[0].Date != "24/02/2026" || appended[0].Time != "2:30 PM" {
		t.Errorf("Unexpected appended leads %+v", appended)
	}
}

func TestLeadHandlerAdminCreateValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing time", `{"name":"Ann","projectName":"Tower","phoneNumber":"555","date":"2026-02-24"}`},
		{"bad date", `{"name":"Ann","projectName":"Tower","phoneNumber":"555","date":"someday","time":"10:00"}`},
		{"bad time", `{"name":"Ann","projectName":"Tower","phoneNumber":"555","date":"2026-02-24","time":"noonish"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestLeadHandler(&fakeGateway{}, nil, time.UTC)

			w := serve(h.AdminCreate, "POST", "/leads", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d", w.Code)
			}
		})
	}
}

func TestLeadHandlerStats(t *testing.T) {
	h := newTestLeadHandler(&fakeGateway{leads: sampleLeads()}, nil, time.UTC)

	w := serve(h.Stats, "GET", "/leads", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var resp struct {
		Total      int    `json:"total"`
		Today      int    `json:"today"`
		Projects   int    `json:"projects"`
		Generation uint64 `json:"generation"`
		FetchedAt  string `json:"fetched_at"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp.Total != 3 || resp.Today != 2 || resp.Projects != 2 || resp.Generation != 1 {
		t.Errorf("Unexpected stats %+v", resp)
	}
	if resp.FetchedAt == "" {
		t.Error("Expected fetched_at")
	}
}
