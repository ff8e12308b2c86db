package ledger

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/oficina/internal/http/auth"
	"github.com/MrJamesThe3rd/oficina/internal/importer"
	"github.com/MrJamesThe3rd/oficina/internal/http/respond"
	"github.com/MrJamesThe3rd/oficina/internal/ledger"
	"github.com/MrJamesThe3rd/oficina/internal/workorder"
	"github.com/MrJamesThe3rd/oficina/internal/workshop"
)

type Handler struct {
	app      *workshop.App
	importer *importer.Service
}

func NewHandler(app *workshop.App, importSvc *importer.Service) *Handler {
	return &Handler{app: app, importer: importSvc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/summary", h.summary)
	r.Post("/import", h.importStatement)
	r.Post("/import/confirm", h.confirmImport)
	r.Patch("/{id}", h.amend)
	r.Delete("/{id}", h.delete)
	r.Delete("/groups/{groupID}", h.deleteGroup)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	entries := h.app.Snapshot().Ledger

	typ := ledger.Type(r.URL.Query().Get("type"))
	if typ != "" && !typ.Valid() {
		respond.BadRequest(w, "type must be CREDIT or DEBIT")
		return
	}

	if s := r.URL.Query().Get("period"); s != "" {
		p, err := ledger.ParsePeriod(s)
		if err != nil {
			respond.BadRequest(w, err.Error())
			return
		}

		entries = ledger.Filter(entries, p, typ)
	} else if typ != "" {
		filtered := make([]ledger.Entry, 0, len(entries))

		for _, e := range entries {
			if e.Type == typ {
				filtered = append(filtered, e)
			}
		}

		entries = filtered
	}

	respond.JSON(w, http.StatusOK, entries)
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	p := ledger.MonthOf(time.Now())

	if s := r.URL.Query().Get("period"); s != "" {
		var err error

		p, err = ledger.ParsePeriod(s)
		if err != nil {
			respond.BadRequest(w, err.Error())
			return
		}
	}

	respond.JSON(w, http.StatusOK, h.app.Summarize(p))
}

type createEntryRequest struct {
	Description string      `json:"description"`
	Amount      int64       `json:"amount"`
	Type        ledger.Type `json:"type"`
	Date        time.Time   `json:"date"`
	Mode        ledger.Mode `json:"mode"`
	Count       int         `json:"count"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createEntryRequest
	if !respond.Decode(w, r, &req) {
		return
	}

	if req.Mode == "" {
		req.Mode = ledger.ModeSingle
	}

	res, err := h.app.Dispatch(r.Context(), workorder.Answers{}, workshop.AddEntry{Params: ledger.RecurrenceParams{
		Description: req.Description,
		Total:       req.Amount,
		Type:        req.Type,
		Start:       req.Date,
		Mode:        req.Mode,
		Count:       req.Count,
	}})
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.Command(w, http.StatusCreated, res)
}

type amendEntryRequest struct {
	Description *string      `json:"description,omitempty"`
	Amount      *int64       `json:"amount,omitempty"`
	Type        *ledger.Type `json:"type,omitempty"`
	Date        *time.Time   `json:"date,omitempty"`
	Reason      string       `json:"reason"`
}

func (h *Handler) amend(w http.ResponseWriter, r *http.Request) {
	var req amendEntryRequest
	if !respond.Decode(w, r, &req) {
		return
	}

	actor := auth.Subject(r.Context())
	if actor == "" {
		actor = "api"
	}

	res, err := h.app.Dispatch(r.Context(), workorder.Answers{}, workshop.AmendEntry{
		EntryID: chi.URLParam(r, "id"),
		Params: ledger.AmendParams{
			Description: req.Description,
			Amount:      req.Amount,
			Type:        req.Type,
			Date:        req.Date,
			Actor:       actor,
			Reason:      req.Reason,
		},
	})
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.Command(w, http.StatusOK, res)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if _, err := h.app.Dispatch(r.Context(), workorder.Answers{}, workshop.DeleteEntry{EntryID: chi.URLParam(r, "id")}); err != nil {
		respond.Error(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteGroup(w http.ResponseWriter, r *http.Request) {
	if _, err := h.app.Dispatch(r.Context(), workorder.Answers{}, workshop.DeleteGroup{GroupID: chi.URLParam(r, "groupID")}); err != nil {
		respond.Error(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

const maxUpload = 10 << 20

// importStatement books the movements of an uploaded statement. Movements
// already in the ledger are left out and listed with 409 so the caller can
// confirm them one by one.
func (h *Handler) importStatement(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		respond.BadRequest(w, "failed to parse form: "+err.Error())
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		respond.BadRequest(w, "file field is required")
		return
	}
	defer file.Close()

	params, err := h.importer.Import(importer.Format(r.FormValue("format")), file)
	if err != nil {
		respond.BadRequest(w, err.Error())
		return
	}

	res, err := h.app.Dispatch(r.Context(), workorder.Answers{}, workshop.ImportEntries{Params: params})
	if err != nil {
		respond.Error(w, err)
		return
	}

	status := http.StatusCreated
	if len(res.Conflicts) > 0 {
		status = http.StatusConflict
	}

	respond.Command(w, status, res)
}

type importParamsDTO struct {
	Description string      `json:"description"`
	Amount      int64       `json:"amount"`
	Type        ledger.Type `json:"type"`
	Date        time.Time   `json:"date"`
}

type confirmImportRequest struct {
	Params []importParamsDTO `json:"params"`
}

func (h *Handler) confirmImport(w http.ResponseWriter, r *http.Request) {
	var req confirmImportRequest
	if !respond.Decode(w, r, &req) {
		return
	}

	params := make([]ledger.CreateParams, 0, len(req.Params))
	for _, p := range req.Params {
		params = append(params, ledger.CreateParams{
			Description: p.Description,
			Amount:      p.Amount,
			Type:        p.Type,
			Date:        p.Date,
		})
	}

	res, err := h.app.Dispatch(r.Context(), workorder.Answers{}, workshop.ImportEntries{Params: params, Force: true})
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.Command(w, http.StatusCreated, res)
}
