package registry

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/oficina/internal/catalog"
	"github.com/MrJamesThe3rd/oficina/internal/http/respond"
	"github.com/MrJamesThe3rd/oficina/internal/workorder"
	"github.com/MrJamesThe3rd/oficina/internal/workshop"
)

// Handler serves the client registry, the price catalogs and the workshop
// settings.
type Handler struct {
	app *workshop.App
}

func NewHandler(app *workshop.App) *Handler {
	return &Handler{app: app}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/clients", h.clients)
	r.Put("/clients/{id}", h.updateClient)
	r.Get("/catalog/{kind}", h.catalog)
	r.Put("/catalog/{kind}", h.updateItem)
	r.Delete("/catalog/{kind}", h.deleteItem)
	r.Get("/settings", h.settings)
	r.Put("/settings", h.updateSettings)
}

func (h *Handler) clients(w http.ResponseWriter, r *http.Request) {
	limit := 0

	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			respond.BadRequest(w, "invalid limit")
			return
		}

		limit = n
	}

	clients := h.app.SuggestClients(r.URL.Query().Get("q"), limit)
	if clients == nil {
		clients = []catalog.Client{}
	}

	respond.JSON(w, http.StatusOK, clients)
}

func (h *Handler) updateClient(w http.ResponseWriter, r *http.Request) {
	var client catalog.Client
	if !respond.Decode(w, r, &client) {
		return
	}

	client.ID = chi.URLParam(r, "id")

	h.dispatch(w, r, workshop.UpdateClient{Client: client})
}

func (h *Handler) catalog(w http.ResponseWriter, r *http.Request) {
	doc := h.app.Snapshot()

	switch workshop.CatalogKind(chi.URLParam(r, "kind")) {
	case workshop.KindParts:
		respond.JSON(w, http.StatusOK, doc.CatalogParts)
	case workshop.KindServices:
		respond.JSON(w, http.StatusOK, doc.CatalogServices)
	default:
		http.Error(w, "unknown catalog", http.StatusNotFound)
	}
}

type updateItemRequest struct {
	// Description identifies the item being edited.
	Description string       `json:"description"`
	Item        catalog.Item `json:"item"`
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	var req updateItemRequest
	if !respond.Decode(w, r, &req) {
		return
	}

	h.dispatch(w, r, workshop.UpdateCatalogItem{
		Kind:        workshop.CatalogKind(chi.URLParam(r, "kind")),
		Description: req.Description,
		Item:        req.Item,
	})
}

func (h *Handler) deleteItem(w http.ResponseWriter, r *http.Request) {
	_, err := h.app.Dispatch(r.Context(), workorder.Answers{}, workshop.DeleteCatalogItem{
		Kind:        workshop.CatalogKind(chi.URLParam(r, "kind")),
		Description: r.URL.Query().Get("description"),
	})
	if err != nil {
		respond.Error(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) settings(w http.ResponseWriter, _ *http.Request) {
	respond.JSON(w, http.StatusOK, h.app.Snapshot().Settings)
}

func (h *Handler) updateSettings(w http.ResponseWriter, r *http.Request) {
	var s workshop.Settings
	if !respond.Decode(w, r, &s) {
		return
	}

	h.dispatch(w, r, workshop.UpdateSettings{Settings: s})
}

func (h *Handler) dispatch(w http.ResponseWriter, r *http.Request, cmd workshop.Command) {
	res, err := h.app.Dispatch(r.Context(), workorder.Answers{}, cmd)
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.Command(w, http.StatusOK, res)
}
