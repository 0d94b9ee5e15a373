package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const requestTimeout = 30 * time.Second

// ErrRemoteUnavailable indicates the spreadsheet endpoint could not be
// reached or answered with a non-success status.
var ErrRemoteUnavailable = errors.New("remote store unavailable")

// Submit modes understood by the remote endpoint. Each write is a single
// flat JSON object discriminated by "mode".
const (
	ModeCustomerOnly    = "customer_only"
	ModeCustomerDelete  = "customer_delete"
	ModeCustomerRestore = "customer_restore"
	ModeVisitOnly       = "visit_only"
	ModeVisitDelete     = "visit_delete"
	ModeVisitRestore    = "visit_restore"
)

// Payload is one write request body.
type Payload map[string]any

// Dataset is one wholesale snapshot of both sheets.
type Dataset struct {
	Customers []Customer
	Visits    []Visit
}

// Client talks to the spreadsheet endpoint.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

// NewClient builds a client for the given endpoint URL.
func NewClient(baseURL string, log zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: requestTimeout},
		log:     log,
	}
}

type remoteDataset struct {
	Customer []map[string]any `json:"customer"`
	Visit    []map[string]any `json:"visit"`
}

// FetchDataset pulls both sheets in one GET. Missing keys decode as empty
// sequences and missing columns are filled by the row builders.
func (c *Client) FetchDataset(ctx context.Context) (*Dataset, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?action=get", nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error().Err(err).Msg("fetch dataset")
		return nil, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Error().Int("status", resp.StatusCode).Msg("fetch dataset")
		return nil, fmt.Errorf("%w: status %d", ErrRemoteUnavailable, resp.StatusCode)
	}

	var remote remoteDataset
	if err := json.NewDecoder(resp.Body).Decode(&remote); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrRemoteUnavailable, err)
	}

	ds := &Dataset{
		Customers: make([]Customer, 0, len(remote.Customer)),
		Visits:    make([]Visit, 0, len(remote.Visit)),
	}
	for _, row := range remote.Customer {
		ds.Customers = append(ds.Customers, customerFromRow(row))
	}
	for _, row := range remote.Visit {
		ds.Visits = append(ds.Visits, visitFromRow(row))
	}
	c.log.Info().Int("customers", len(ds.Customers)).Int("visits", len(ds.Visits)).Msg("dataset loaded")
	return ds, nil
}

// Submit posts one write. The response body is ignored; any non-error
// completion counts as success. There is no retry.
func (c *Client) Submit(ctx context.Context, p Payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error().Err(err).Str("mode", payloadMode(p)).Msg("submit")
		return fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Error().Int("status", resp.StatusCode).Str("mode", payloadMode(p)).Msg("submit")
		return fmt.Errorf("%w: status %d", ErrRemoteUnavailable, resp.StatusCode)
	}
	c.log.Info().Str("mode", payloadMode(p)).Msg("submitted")
	return nil
}

func payloadMode(p Payload) string {
	if m, ok := p["mode"].(string); ok {
		return m
	}
	return ""
}

// Store memoizes one dataset between mutations. The app is a single
// logical thread of control, so the cache needs no locking; it is replaced
// wholesale on refetch.
type Store struct {
	client *Client
	cached *Dataset
}

// NewStore wraps a client with the session cache.
func NewStore(client *Client) *Store {
	return &Store{client: client}
}

// Dataset returns the cached snapshot, fetching on a cold cache.
func (s *Store) Dataset(ctx context.Context) (*Dataset, error) {
	if s.cached != nil {
		return s.cached, nil
	}
	ds, err := s.client.FetchDataset(ctx)
	if err != nil {
		return nil, err
	}
	s.cached = ds
	return ds, nil
}

// Invalidate drops the cached snapshot so the next read refetches.
func (s *Store) Invalidate() {
	s.cached = nil
}

// SetEndpoint retargets the client and drops the cached snapshot so the
// next read hits the new endpoint.
func (s *Store) SetEndpoint(baseURL string) {
	s.client.baseURL = baseURL
	s.Invalidate()
}

// Submit forwards one write and invalidates the cache on success. A failed
// write leaves the cache alone: the mutation did not apply.
func (s *Store) Submit(ctx context.Context, p Payload) error {
	if err := s.client.Submit(ctx, p); err != nil {
		return err
	}
	s.Invalidate()
	return nil
}

// CustomerPayload builds a full-record customer upsert.
func CustomerPayload(c Customer) Payload {
	p := Payload{"mode": ModeCustomerOnly}
	for k, v := range c.Row() {
		if k == ColDeleted {
			continue
		}
		p[k] = v
	}
	return p
}

// VisitPayload builds a full-record visit upsert. The weekday is derived
// from the visit date, never taken from the form.
func VisitPayload(v Visit) Payload {
	if v.Date != nil {
		v.Weekday = JapaneseWeekday(*v.Date)
	}
	p := Payload{"mode": ModeVisitOnly}
	for k, val := range v.Row() {
		if k == ColDeleted {
			continue
		}
		p[k] = val
	}
	p[ColExtensions] = v.Extensions
	p[ColSales] = v.Sales
	return p
}

// CustomerFlagPayload builds the minimal delete/restore flip for a
// customer. It must not carry any other field, so stale form values can
// never ride along with a delete.
func CustomerFlagPayload(id string, deleted bool) Payload {
	mode, flag := ModeCustomerRestore, FlagActive
	if deleted {
		mode, flag = ModeCustomerDelete, FlagDeleted
	}
	return Payload{"mode": mode, ColCustomerID: id, ColDeleted: flag}
}

// VisitFlagPayload is the visit counterpart of CustomerFlagPayload.
func VisitFlagPayload(id string, deleted bool) Payload {
	mode, flag := ModeVisitRestore, FlagActive
	if deleted {
		mode, flag = ModeVisitDelete, FlagDeleted
	}
	return Payload{"mode": mode, ColVisitID: id, ColDeleted: flag}
}

// CustomerByID finds a customer in the snapshot.
func (d *Dataset) CustomerByID(id string) (Customer, bool) {
	for _, c := range d.Customers {
		if c.ID == id {
			return c, true
		}
	}
	return Customer{}, false
}

// VisitByID finds a visit in the snapshot.
func (d *Dataset) VisitByID(id string) (Visit, bool) {
	for _, v := range d.Visits {
		if v.ID == id {
			return v, true
		}
	}
	return Visit{}, false
}

// ActiveCustomers returns customers whose delete flag is not set.
func (d *Dataset) ActiveCustomers() []Customer {
	var out []Customer
	for _, c := range d.Customers {
		if !c.IsDeleted() {
			out = append(out, c)
		}
	}
	return out
}

// DeletedCustomers returns only flagged customers.
func (d *Dataset) DeletedCustomers() []Customer {
	var out []Customer
	for _, c := range d.Customers {
		if c.IsDeleted() {
			out = append(out, c)
		}
	}
	return out
}

// ActiveVisits returns visits whose delete flag is not set.
func (d *Dataset) ActiveVisits() []Visit {
	var out []Visit
	for _, v := range d.Visits {
		if !v.IsDeleted() {
			out = append(out, v)
		}
	}
	return out
}

// DeletedVisits returns only flagged visits.
func (d *Dataset) DeletedVisits() []Visit {
	var out []Visit
	for _, v := range d.Visits {
		if v.IsDeleted() {
			out = append(out, v)
		}
	}
	return out
}

// VisitsByCustomer returns the active visits owned by one customer.
func (d *Dataset) VisitsByCustomer(customerID string) []Visit {
	var out []Visit
	for _, v := range d.ActiveVisits() {
		if v.CustomerID == customerID {
			out = append(out, v)
		}
	}
	return out
}

// AllVisitsByCustomer returns every visit owned by one customer, deleted
// rows included, for the edit picker where restore must stay reachable.
func (d *Dataset) AllVisitsByCustomer(customerID string) []Visit {
	var out []Visit
	for _, v := range d.Visits {
		if v.CustomerID == customerID {
			out = append(out, v)
		}
	}
	return out
}

// VisitCounts tallies active visits per customer for picker labels.
func (d *Dataset) VisitCounts() map[string]int {
	counts := make(map[string]int)
	for _, v := range d.ActiveVisits() {
		counts[v.CustomerID]++
	}
	return counts
}

// CustomerIDs lists every customer identifier, deleted rows included, so
// soft-deleted records still block identifier reuse.
func (d *Dataset) CustomerIDs() []string {
	ids := make([]string, 0, len(d.Customers))
	for _, c := range d.Customers {
		ids = append(ids, c.ID)
	}
	return ids
}

// VisitIDs lists every visit identifier, deleted rows included.
func (d *Dataset) VisitIDs() []string {
	ids := make([]string, 0, len(d.Visits))
	for _, v := range d.Visits {
		ids = append(ids, v.ID)
	}
	return ids
}
