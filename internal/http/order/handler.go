package order

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/oficina/internal/http/respond"
	"github.com/MrJamesThe3rd/oficina/internal/workorder"
	"github.com/MrJamesThe3rd/oficina/internal/workshop"
)

type Handler struct {
	app *workshop.App
}

func NewHandler(app *workshop.App) *Handler {
	return &Handler{app: app}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.save)
	r.Get("/next-number", h.nextNumber)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.save)
	r.Delete("/{id}", h.delete)
	r.Post("/{id}/status", h.setStatus)
	r.Post("/{id}/advance", h.move(func(id string) workshop.Command { return workshop.Advance{OrderID: id} }))
	r.Post("/{id}/regress", h.move(func(id string) workshop.Command { return workshop.Regress{OrderID: id} }))
	r.Post("/{id}/archive", h.move(func(id string) workshop.Command { return workshop.Archive{OrderID: id} }))
	r.Post("/{id}/restore", h.move(func(id string) workshop.Command { return workshop.Restore{OrderID: id} }))
	r.Put("/{id}/checklist", h.checklist)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	orders := h.app.Snapshot().WorkOrders

	if s := r.URL.Query().Get("status"); s != "" {
		status, err := workorder.ParseStatus(s)
		if err != nil {
			respond.BadRequest(w, err.Error())
			return
		}

		filtered := make([]workorder.Order, 0, len(orders))

		for _, o := range orders {
			if o.Status == status {
				filtered = append(filtered, o)
			}
		}

		orders = filtered
	}

	respond.JSON(w, http.StatusOK, orders)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	o, ok := h.app.Order(chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, "order not found", http.StatusNotFound)
		return
	}

	respond.JSON(w, http.StatusOK, o)
}

func (h *Handler) nextNumber(w http.ResponseWriter, _ *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]int{"osNumber": h.app.NextOSNumber()})
}

type saveOrderRequest struct {
	Order        workorder.Order   `json:"order"`
	VehicleModel string            `json:"vehicleModel"`
	VehiclePlate string            `json:"vehiclePlate"`
	ClientNotes  string            `json:"clientNotes"`
	Confirm      workorder.Answers `json:"confirm"`
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request) {
	var req saveOrderRequest
	if !respond.Decode(w, r, &req) {
		return
	}

	status := http.StatusCreated

	if id := chi.URLParam(r, "id"); id != "" {
		if _, ok := h.app.Order(id); !ok {
			http.Error(w, "order not found", http.StatusNotFound)
			return
		}

		req.Order.ID = id
		status = http.StatusOK
	} else if req.Order.ID != "" {
		if _, ok := h.app.Order(req.Order.ID); ok {
			respond.JSON(w, http.StatusConflict, map[string]any{"error": "order already exists, use PUT /orders/" + req.Order.ID})
			return
		}
	}

	res, err := h.app.Dispatch(r.Context(), req.Confirm, workshop.SaveOrder{
		Order:        req.Order,
		VehicleModel: req.VehicleModel,
		VehiclePlate: req.VehiclePlate,
		ClientNotes:  req.ClientNotes,
	})
	if err != nil {
		if res.Declined {
			respond.JSON(w, http.StatusConflict, map[string]any{"declined": true, "error": err.Error()})
			return
		}

		respond.Error(w, err)

		return
	}

	respond.Command(w, status, res)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if _, err := h.app.Dispatch(r.Context(), workorder.Answers{}, workshop.DeleteOrder{OrderID: chi.URLParam(r, "id")}); err != nil {
		respond.Error(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type confirmRequest struct {
	Confirm workorder.Answers `json:"confirm"`
}

type setStatusRequest struct {
	Status  workorder.Status  `json:"status"`
	Confirm workorder.Answers `json:"confirm"`
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request) {
	var req setStatusRequest
	if !respond.Decode(w, r, &req) {
		return
	}

	status, err := workorder.ParseStatus(string(req.Status))
	if err != nil {
		respond.BadRequest(w, err.Error())
		return
	}

	h.dispatch(w, r, req.Confirm, workshop.SetStatus{OrderID: chi.URLParam(r, "id"), Status: status})
}

func (h *Handler) move(build func(id string) workshop.Command) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req confirmRequest
		if !respond.Decode(w, r, &req) {
			return
		}

		h.dispatch(w, r, req.Confirm, build(chi.URLParam(r, "id")))
	}
}

type checklistRequest struct {
	Checklist   workorder.Checklist `json:"checklist"`
	PublicNotes *string             `json:"publicNotes,omitempty"`
}

func (h *Handler) checklist(w http.ResponseWriter, r *http.Request) {
	req := checklistRequest{Checklist: workorder.DefaultChecklist()}
	if !respond.Decode(w, r, &req) {
		return
	}

	h.dispatch(w, r, workorder.Answers{}, workshop.UpdateChecklist{
		OrderID:     chi.URLParam(r, "id"),
		Checklist:   req.Checklist,
		PublicNotes: req.PublicNotes,
	})
}

func (h *Handler) dispatch(w http.ResponseWriter, r *http.Request, d workorder.Decision, cmd workshop.Command) {
	res, err := h.app.Dispatch(r.Context(), d, cmd)
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.Command(w, http.StatusOK, res)
}
