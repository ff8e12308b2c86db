// Package mirror copies the local collections to and from an optional
// remote store. Direction is always explicit: nothing is pushed or pulled
// unless the user asks for it, and each collection is synced on its own.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrUnavailable is returned when no remote is configured or it cannot be
// reached.
var ErrUnavailable = errors.New("remote mirror unavailable")

// Error names the collection a sync failure belongs to.
type Error struct {
	Collection Collection
	Err        error
}

func (e *Error) Error() string {
	return fmt.Sprintf("syncing %s: %v", e.Collection, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

type PageQuery struct {
	OrderBy string
	Size    int
	Cursor  string
}

// Page is one slice of a remote collection. Next is empty on the last page.
type Page struct {
	Records []Record
	Next    string
}

//go:generate mockgen -source=service.go -destination=service_mock.go -package=mirror
type Remote interface {
	Ping(ctx context.Context) error
	Replace(ctx context.Context, c Collection, records []Record) error
	Page(ctx context.Context, c Collection, q PageQuery) (Page, error)
}

// Local is the in-memory side of a sync.
type Local interface {
	Records(ctx context.Context, c Collection) ([]Record, error)
	ReplaceRecords(ctx context.Context, c Collection, records []Record) error
}

// Progress is called after every fetched page with the running total.
type Progress func(c Collection, fetched int)

type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// Result is the outcome of syncing one collection.
type Result struct {
	Collection Collection `json:"collection"`
	Records    int        `json:"records"`
	Err        error      `json:"-"`
}

// Report collects per-collection results. Some collections may have
// succeeded while others failed.
type Report struct {
	Direction Direction `json:"direction"`
	Results   []Result  `json:"results"`
}

// Err joins every collection failure, or nil when all succeeded.
func (r Report) Err() error {
	var errs []error

	for _, res := range r.Results {
		if res.Err != nil {
			errs = append(errs, &Error{Collection: res.Collection, Err: res.Err})
		}
	}

	return errors.Join(errs...)
}

func (r Report) Succeeded() []Collection {
	var out []Collection

	for _, res := range r.Results {
		if res.Err == nil {
			out = append(out, res.Collection)
		}
	}

	return out
}

// DefaultOrder is the field each collection is paged by.
var DefaultOrder = map[Collection]string{
	Ledger:          "effectiveDate",
	WorkOrders:      "osNumber",
	Clients:         "name",
	CatalogParts:    "description",
	CatalogServices: "description",
}

type Service struct {
	remote   Remote
	local    Local
	pageSize int
}

// NewService builds a sync service. A nil remote makes every operation fail
// with ErrUnavailable.
func NewService(remote Remote, local Local, pageSize int) *Service {
	if pageSize <= 0 {
		pageSize = 50
	}

	return &Service{remote: remote, local: local, pageSize: pageSize}
}

// Available reports whether the remote can be used right now.
func (s *Service) Available(ctx context.Context) error {
	if s.remote == nil {
		return ErrUnavailable
	}

	if err := s.remote.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	return nil
}

// SyncUp overwrites each remote collection with the local one.
func (s *Service) SyncUp(ctx context.Context, collections ...Collection) (Report, error) {
	if err := s.Available(ctx); err != nil {
		return Report{}, err
	}

	report := Report{Direction: Up}

	for _, c := range orAll(collections) {
		res := Result{Collection: c}

		records, err := s.local.Records(ctx, c)
		if err == nil {
			res.Records = len(records)
			err = s.remote.Replace(ctx, c, records)
		}

		res.Err = err
		report.Results = append(report.Results, res)

		logResult(Up, res)
	}

	return report, nil
}

// SyncDown replaces each local collection with the remote snapshot.
func (s *Service) SyncDown(ctx context.Context, progress Progress, collections ...Collection) (Report, error) {
	if err := s.Available(ctx); err != nil {
		return Report{}, err
	}

	report := Report{Direction: Down}

	for _, c := range orAll(collections) {
		res := Result{Collection: c}

		records, err := s.FetchAll(ctx, c, DefaultOrder[c], progress)
		if err == nil {
			res.Records = len(records)
			err = s.local.ReplaceRecords(ctx, c, records)
		}

		res.Err = err
		report.Results = append(report.Results, res)

		logResult(Down, res)
	}

	return report, nil
}

// FullSync pulls every collection. It never pushes.
func (s *Service) FullSync(ctx context.Context, progress Progress) (Report, error) {
	return s.SyncDown(ctx, progress, Collections...)
}

// FetchAll reads a remote collection page by page.
func (s *Service) FetchAll(ctx context.Context, c Collection, orderBy string, progress Progress) ([]Record, error) {
	if s.remote == nil {
		return nil, ErrUnavailable
	}

	var (
		out    []Record
		cursor string
	)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := s.remote.Page(ctx, c, PageQuery{OrderBy: orderBy, Size: s.pageSize, Cursor: cursor})
		if err != nil {
			return nil, fmt.Errorf("fetching %s page: %w", c, err)
		}

		out = append(out, page.Records...)

		if progress != nil {
			progress(c, len(out))
		}

		if page.Next == "" || len(page.Records) == 0 {
			return out, nil
		}

		cursor = page.Next
	}
}

func orAll(cs []Collection) []Collection {
	if len(cs) == 0 {
		return Collections
	}

	return cs
}

func logResult(d Direction, res Result) {
	if res.Err != nil {
		slog.Warn("collection sync failed", "direction", d, "collection", res.Collection, "error", res.Err)
		return
	}

	slog.Info("collection synced", "direction", d, "collection", res.Collection, "records", res.Records)
}
