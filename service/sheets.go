package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/amarkiccha/lead/config"
	"github.com/amarkiccha/lead/model"
	"github.com/amarkiccha/lead/pkg/datetime"
	"github.com/amarkiccha/lead/pkg/logger"
)

const (
	opList   = "getLeads"
	opAppend = "addLead"

	maxResponseBytes = 8 << 20
)

// Gateway is the remote lead store.
type Gateway interface {
	ListLeads(ctx context.Context) ([]model.Lead, error)
	AppendLead(ctx context.Context, lead model.Lead) (*AppendAck, error)
}

// SheetsClient talks to the spreadsheet web app over GET requests.
type SheetsClient struct {
	config     *config.SheetsConfig
	httpClient *http.Client
}

// AppendAck acknowledges an append. Body is nil when the service answered
// with something other than a JSON object.
type AppendAck struct {
	Body map[string]any
}

func NewSheetsClient(cfg *config.SheetsConfig) *SheetsClient {
	return &SheetsClient{
		config: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout(),
		},
	}
}

// ListLeads fetches every row, normalizes it and returns the leads most
// recent first.
func (s *SheetsClient) ListLeads(ctx context.Context) ([]model.Lead, error) {
	body, err := s.get(ctx, opList, url.Values{"action": {opList}})
	if err != nil {
		return nil, err
	}

	payload, err := decodeListPayload(body)
	if err != nil {
		return nil, &RemoteError{Kind: KindMalformed, Op: opList, Err: err}
	}

	switch payload.shape {
	case shapeError:
		return nil, &RemoteError{Kind: KindRemote, Op: opList, Message: payload.message}
	case shapeEmpty:
		logger.Warn(ctx, "sheet response carried no lead list", "bytes", len(body))
	}

	leads := NormalizeAll(payload.records)
	for _, l := range leads {
		if ts := datetime.Resolve(l.Date, l.Time); ts.Degraded() {
			logger.Debug(ctx, "lead date/time defaulted",
				"lead_id", l.ID,
				"date", l.Date,
				"time", l.Time,
				"date_parsed", ts.DateParsed,
			)
		}
	}

	logger.Debug(ctx, "leads fetched", "count", len(leads), "shape", payload.shape.String())
	return SortByRecency(leads), nil
}

// AppendLead writes one lead. The date is sent as YYYY-MM-DD whenever it can
// be parsed. A non-JSON success body is accepted since the script's success
// responses are not reliably structured.
//
// The call is not idempotent and is never retried here: after a failure the
// remote write may or may not have happened.
func (s *SheetsClient) AppendLead(ctx context.Context, lead model.Lead) (*AppendAck, error) {
	p := s.config.Params
	params := url.Values{}
	params.Set("action", opAppend)
	params.Set(p.Name, lead.Name)
	params.Set(p.Project, lead.ProjectName)
	params.Set(p.Phone, lead.PhoneNumber)
	params.Set(p.Date, datetime.WireDate(lead.Date))
	params.Set(p.Time, lead.Time)

	body, err := s.get(ctx, opAppend, params)
	if err != nil {
		return nil, err
	}

	ack := &AppendAck{}
	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err == nil {
		if msg := errorMessage(obj["error"]); msg != "" {
			return nil, &RemoteError{Kind: KindRemote, Op: opAppend, Message: msg}
		}
		ack.Body = obj
	}
	return ack, nil
}

func (s *SheetsClient) get(ctx context.Context, op string, params url.Values) ([]byte, error) {
	endpoint, err := url.Parse(s.config.Endpoint)
	if err != nil {
		return nil, &RemoteError{Kind: KindTransport, Op: op, Err: fmt.Errorf("failed to parse endpoint: %w", err)}
	}
	query := endpoint.Query()
	for k, v := range params {
		query[k] = v
	}
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, &RemoteError{Kind: KindTransport, Op: op, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &RemoteError{Kind: KindTransport, Op: op, Err: fmt.Errorf("failed to send request: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &RemoteError{Kind: KindTransport, Op: op, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	logger.Debug(ctx, "sheet call completed",
		"op", op,
		"status", resp.StatusCode,
		"latency_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &RemoteError{Kind: KindTransport, Op: op, Status: resp.StatusCode}
	}
	return body, nil
}

type payloadShape int

const (
	shapeArray payloadShape = iota
	shapeLeads
	shapeData
	shapeError
	shapeEmpty
)

func (s payloadShape) String() string {
	switch s {
	case shapeArray:
		return "array"
	case shapeLeads:
		return "leads"
	case shapeData:
		return "data"
	case shapeError:
		return "error"
	default:
		return "empty"
	}
}

// listPayload is a getLeads body resolved to one of its known shapes.
type listPayload struct {
	shape   payloadShape
	records []model.RawRecord
	message string
}

func decodeListPayload(body []byte) (listPayload, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return listPayload{}, fmt.Errorf("invalid JSON: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return listPayload{}, errors.New("invalid JSON: trailing data after value")
	}

	switch x := v.(type) {
	case []any:
		return listPayload{shape: shapeArray, records: toRecords(x)}, nil
	case map[string]any:
		if rows, ok := x["leads"].([]any); ok {
			return listPayload{shape: shapeLeads, records: toRecords(rows)}, nil
		}
		if rows, ok := x["data"].([]any); ok {
			return listPayload{shape: shapeData, records: toRecords(rows)}, nil
		}
		if msg := errorMessage(x["error"]); msg != "" {
			return listPayload{shape: shapeError, message: msg}, nil
		}
		return listPayload{shape: shapeEmpty}, nil
	default:
		return listPayload{}, fmt.Errorf("unexpected JSON value of type %T", v)
	}
}

// toRecords keeps row positions stable; rows that are not objects become
// empty records.
func toRecords(rows []any) []model.RawRecord {
	records := make([]model.RawRecord, len(rows))
	for i, row := range rows {
		if m, ok := row.(map[string]any); ok {
			records[i] = model.RawRecord(m)
		} else {
			records[i] = model.RawRecord{}
		}
	}
	return records
}

// errorMessage extracts the text of an "error" field. Falsy values (absent,
// null, false, "", 0) mean no error.
func errorMessage(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case bool:
		if !x {
			return ""
		}
		return "true"
	case json.Number:
		if f, err := x.Float64(); err == nil && f == 0 {
			return ""
		}
		return x.String()
	case float64:
		if x == 0 {
			return ""
		}
		return text(x)
	case string:
		return x
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	}
}
