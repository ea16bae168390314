package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amarkiccha/lead/config"
	"github.com/amarkiccha/lead/model"
)

func newTestSheets(t *testing.T, handler http.HandlerFunc) (*SheetsClient, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &config.SheetsConfig{
		Endpoint:       server.URL + "/macros/exec",
		TimeoutSeconds: 5,
		Params:         config.AppendParams{Name: "name", Project: "project", Phone: "phone", Date: "date", Time: "time"},
	}
	return NewSheetsClient(cfg), server
}

func respond(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func TestNewSheetsClient(t *testing.T) {
	cfg := &config.SheetsConfig{Endpoint: "https://script.example.test/exec", TimeoutSeconds: 12}

	svc := NewSheetsClient(cfg)
	require.NotNil(t, svc)
	assert.Same(t, cfg, svc.config)
	assert.Equal(t, cfg.Timeout(), svc.httpClient.Timeout)
}

func TestListLeads_RequestShape(t *testing.T) {
	svc, _ := newTestSheets(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/macros/exec", r.URL.Path)
		assert.Equal(t, "getLeads", r.URL.Query().Get("action"))
		_, _ = w.Write([]byte(`[]`))
	})

	leads, err := svc.ListLeads(context.Background())
	require.NoError(t, err)
	assert.Empty(t, leads)
}

func TestListLeads_NormalizesAndSorts(t *testing.T) {
	svc, _ := newTestSheets(t, respond(http.StatusOK, `[
		{"name":"Ann","project_name":"Tower","date":"2024-01-05","time":"14:30"},
		{"name":"Bo","project":"Villa","date":"2024-01-06"}
	]`))

	leads, err := svc.ListLeads(context.Background())
	require.NoError(t, err)
	require.Len(t, leads, 2)

	assert.Equal(t, model.Lead{ID: "lead-1", Name: "Bo", ProjectName: "Villa", Date: "2024-01-06"}, leads[0])
	assert.Equal(t, model.Lead{ID: "lead-0", Name: "Ann", ProjectName: "Tower", Date: "2024-01-05", Time: "14:30"}, leads[1])
}

func TestListLeads_AcceptedShapes(t *testing.T) {
	bodies := map[string]string{
		"bare array":   `[{"name":"Ann"}]`,
		"leads field":  `{"leads":[{"name":"Ann"}],"count":1}`,
		"data field":   `{"data":[{"name":"Ann"}]}`,
		"leads wins":   `{"leads":[{"name":"Ann"}],"data":[{"name":"Other"}]}`,
		"list + error": `{"leads":[{"name":"Ann"}],"error":"ignored"}`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			svc, _ := newTestSheets(t, respond(http.StatusOK, body))

			leads, err := svc.ListLeads(context.Background())
			require.NoError(t, err)
			require.Len(t, leads, 1)
			assert.Equal(t, "Ann", leads[0].Name)
		})
	}
}

func TestListLeads_ObjectWithoutListIsEmpty(t *testing.T) {
	svc, _ := newTestSheets(t, respond(http.StatusOK, `{"status":"ok"}`))

	leads, err := svc.ListLeads(context.Background())
	require.NoError(t, err)
	assert.Empty(t, leads)
}

func TestListLeads_NonObjectRowsBecomeEmptyLeads(t *testing.T) {
	svc, _ := newTestSheets(t, respond(http.StatusOK, `[null, ["x"], {"name":"Ann","date":"2024-01-01"}]`))

	leads, err := svc.ListLeads(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"lead-2", "lead-0", "lead-1"}, ids(leads))
	assert.Equal(t, "", leads[1].Name)
}

func TestListLeads_RemoteError(t *testing.T) {
	svc, _ := newTestSheets(t, respond(http.StatusOK, `{"error":"quota exceeded"}`))

	_, err := svc.ListLeads(context.Background())
	require.Error(t, err)

	var remoteErr *RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, KindRemote, remoteErr.Kind)
	assert.Equal(t, "quota exceeded", remoteErr.Message)
	assert.False(t, remoteErr.Retryable())
	assert.ErrorIs(t, err, ErrRemote)
}

func TestListLeads_TransportErrors(t *testing.T) {
	t.Run("non-2xx status", func(t *testing.T) {
		svc, _ := newTestSheets(t, respond(http.StatusInternalServerError, `{"leads":[]}`))

		_, err := svc.ListLeads(context.Background())

		var remoteErr *RemoteError
		require.ErrorAs(t, err, &remoteErr)
		assert.Equal(t, KindTransport, remoteErr.Kind)
		assert.Equal(t, http.StatusInternalServerError, remoteErr.Status)
		assert.True(t, remoteErr.Retryable())
		assert.ErrorIs(t, err, ErrTransport)
	})

	t.Run("connection refused", func(t *testing.T) {
		svc, server := newTestSheets(t, respond(http.StatusOK, `[]`))
		server.Close()

		_, err := svc.ListLeads(context.Background())
		assert.ErrorIs(t, err, ErrTransport)
	})

	t.Run("cancelled context", func(t *testing.T) {
		svc, _ := newTestSheets(t, respond(http.StatusOK, `[]`))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := svc.ListLeads(ctx)
		assert.ErrorIs(t, err, ErrTransport)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestListLeads_Malformed(t *testing.T) {
	for name, body := range map[string]string{
		"html login page": `<!DOCTYPE html><html></html>`,
		"truncated":       `[{"name":"Ann"`,
		"scalar":          `"hello"`,
		"null":            `null`,
		"trailing data":   `[] []`,
	} {
		t.Run(name, func(t *testing.T) {
			svc, _ := newTestSheets(t, respond(http.StatusOK, body))

			_, err := svc.ListLeads(context.Background())

			var remoteErr *RemoteError
			require.ErrorAs(t, err, &remoteErr)
			assert.Equal(t, KindMalformed, remoteErr.Kind)
			assert.True(t, remoteErr.Retryable())
		})
	}
}

func TestAppendLead_EncodesParameters(t *testing.T) {
	var got url.Values
	svc, _ := newTestSheets(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		_, _ = w.Write([]byte(`{"success":true}`))
	})
	svc.config.Params.Project = "project_name"
	svc.config.Params.Phone = "phone_number"

	ack, err := svc.AppendLead(context.Background(), model.Lead{
		Name:        "Ann & Co",
		ProjectName: "Tower",
		PhoneNumber: "+1 555 0100",
		Date:        "24/02/2026",
		Time:        "09:21:00",
	})
	require.NoError(t, err)
	assert.Equal(t, true, ack.Body["success"])

	assert.Equal(t, "addLead", got.Get("action"))
	assert.Equal(t, "Ann & Co", got.Get("name"))
	assert.Equal(t, "Tower", got.Get("project_name"))
	assert.Equal(t, "+1 555 0100", got.Get("phone_number"))
	assert.Equal(t, "2026-02-24", got.Get("date"))
	assert.Equal(t, "09:21:00", got.Get("time"))
	assert.Empty(t, got.Get("project"))
}

func TestAppendLead_NonJSONBodyIsSuccess(t *testing.T) {
	svc, _ := newTestSheets(t, respond(http.StatusOK, `Lead added`))

	ack, err := svc.AppendLead(context.Background(), model.Lead{Name: "Ann"})
	require.NoError(t, err)
	assert.Nil(t, ack.Body)
}

func TestAppendLead_RemoteError(t *testing.T) {
	svc, _ := newTestSheets(t, respond(http.StatusOK, `{"error":"sheet locked"}`))

	_, err := svc.AppendLead(context.Background(), model.Lead{Name: "Ann"})

	var remoteErr *RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, KindRemote, remoteErr.Kind)
	assert.Equal(t, "addLead", remoteErr.Op)
	assert.Contains(t, err.Error(), "sheet locked")
}

func TestAppendLead_FalsyErrorFieldIsSuccess(t *testing.T) {
	svc, _ := newTestSheets(t, respond(http.StatusOK, `{"error":null,"success":true}`))

	_, err := svc.AppendLead(context.Background(), model.Lead{Name: "Ann"})
	assert.NoError(t, err)
}

func TestAppendLead_TransportError(t *testing.T) {
	svc, _ := newTestSheets(t, respond(http.StatusBadGateway, `{}`))

	_, err := svc.AppendLead(context.Background(), model.Lead{Name: "Ann"})
	assert.True(t, errors.Is(err, ErrTransport))
	assert.False(t, errors.Is(err, ErrRemote))
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "", errorMessage(nil))
	assert.Equal(t, "", errorMessage(false))
	assert.Equal(t, "", errorMessage(""))
	assert.Equal(t, "", errorMessage(float64(0)))
	assert.Equal(t, "boom", errorMessage("boom"))
	assert.Equal(t, "true", errorMessage(true))
	assert.Equal(t, `{"code":7}`, errorMessage(map[string]any{"code": float64(7)}))
}
