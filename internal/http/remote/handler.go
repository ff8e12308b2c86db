package remote

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/oficina/internal/export"
	"github.com/MrJamesThe3rd/oficina/internal/http/respond"
	"github.com/MrJamesThe3rd/oficina/internal/ledger"
	"github.com/MrJamesThe3rd/oficina/internal/mirror"
	"github.com/MrJamesThe3rd/oficina/internal/persistence"
	"github.com/MrJamesThe3rd/oficina/internal/workshop"
)

// Handler exposes saving, the remote mirror and the ledger export.
type Handler struct {
	app    *workshop.App
	saver  *persistence.Coordinator
	mirror *mirror.Service
	export *export.Service
}

func NewHandler(app *workshop.App, saver *persistence.Coordinator, m *mirror.Service, e *export.Service) *Handler {
	return &Handler{app: app, saver: saver, mirror: m, export: e}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/status", h.status)
	r.Post("/save", h.save)
	r.Post("/up", h.up)
	r.Post("/down", h.down)
	r.Post("/full", h.full)
	r.Post("/export", h.exportReport)
}

type statusResponse struct {
	Persistence persistence.Status `json:"persistence"`
	Remote      bool               `json:"remote"`
	RemoteError string             `json:"remoteError,omitempty"`
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{Persistence: h.saver.Status(), Remote: true}

	if err := h.mirror.Available(r.Context()); err != nil {
		resp.Remote = false
		resp.RemoteError = err.Error()
	}

	respond.JSON(w, http.StatusOK, resp)
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request) {
	if err := h.saver.Flush(r.Context()); err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, h.saver.Status())
}

type collectionsRequest struct {
	Collections []string `json:"collections"`
}

func parseCollections(w http.ResponseWriter, r *http.Request) ([]mirror.Collection, bool) {
	var req collectionsRequest
	if !respond.Decode(w, r, &req) {
		return nil, false
	}

	out := make([]mirror.Collection, 0, len(req.Collections))

	for _, s := range req.Collections {
		c, err := mirror.ParseCollection(s)
		if err != nil {
			respond.BadRequest(w, err.Error())
			return nil, false
		}

		out = append(out, c)
	}

	return out, true
}

type resultResponse struct {
	Collection mirror.Collection `json:"collection"`
	Records    int               `json:"records"`
	Error      string            `json:"error,omitempty"`
}

type reportResponse struct {
	Direction mirror.Direction `json:"direction"`
	Results   []resultResponse `json:"results"`
}

// writeReport answers 200 when every collection synced and 207 when some
// failed.
func writeReport(w http.ResponseWriter, report mirror.Report, err error) {
	if err != nil {
		respond.Error(w, err)
		return
	}

	resp := reportResponse{Direction: report.Direction, Results: make([]resultResponse, 0, len(report.Results))}

	for _, res := range report.Results {
		rr := resultResponse{Collection: res.Collection, Records: res.Records}
		if res.Err != nil {
			rr.Error = res.Err.Error()
		}

		resp.Results = append(resp.Results, rr)
	}

	status := http.StatusOK
	if report.Err() != nil {
		status = http.StatusMultiStatus
	}

	respond.JSON(w, status, resp)
}

func (h *Handler) up(w http.ResponseWriter, r *http.Request) {
	collections, ok := parseCollections(w, r)
	if !ok {
		return
	}

	report, err := h.mirror.SyncUp(r.Context(), collections...)
	writeReport(w, report, err)
}

func (h *Handler) down(w http.ResponseWriter, r *http.Request) {
	collections, ok := parseCollections(w, r)
	if !ok {
		return
	}

	report, err := h.mirror.SyncDown(r.Context(), nil, collections...)
	writeReport(w, report, err)
}

func (h *Handler) full(w http.ResponseWriter, r *http.Request) {
	report, err := h.mirror.FullSync(r.Context(), nil)
	writeReport(w, report, err)
}

type exportRequest struct {
	Period string `json:"period"`
}

func (h *Handler) exportReport(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if !respond.Decode(w, r, &req) {
		return
	}

	p := ledger.MonthOf(time.Now())

	if req.Period != "" {
		var err error

		p, err = ledger.ParsePeriod(req.Period)
		if err != nil {
			respond.BadRequest(w, err.Error())
			return
		}
	}

	doc := h.app.Snapshot()

	res, err := h.export.Export(r.Context(), doc.Ledger, doc.WorkOrders, p)
	if err != nil {
		respond.JSON(w, http.StatusInternalServerError, res)
		return
	}

	respond.JSON(w, http.StatusOK, res)
}
