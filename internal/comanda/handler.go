package comanda

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aquamarinepk/aqm"
	"github.com/aquamarinepk/aqm/events"
	"github.com/aquamarinepk/aqm/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/comandaclub/comanda/pkg/event"
)

const MaxBodyBytes = 1 << 20

type Handler struct {
	service   *Service
	plan      *FloorPlan
	orderRepo OrderRepo
	menuRepo  MenuRepo
	publisher events.Publisher
	activity  *ActivityFeed
	logger    aqm.Logger
	config    *aqm.Config
	tlm       *telemetry.HTTP
}

type HandlerDeps struct {
	Service   *Service
	FloorPlan *FloorPlan
	OrderRepo OrderRepo
	MenuRepo  MenuRepo
	Publisher events.Publisher
	Activity  *ActivityFeed
}

func NewHandler(hd HandlerDeps, config *aqm.Config, logger aqm.Logger) *Handler {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &Handler{
		service:   hd.Service,
		plan:      hd.FloorPlan,
		orderRepo: hd.OrderRepo,
		menuRepo:  hd.MenuRepo,
		publisher: hd.Publisher,
		activity:  hd.Activity,
		logger:    logger,
		config:    config,
		tlm:       telemetry.NewHTTP(),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/tables", func(r chi.Router) {
		r.Post("/", h.CreateTable)
		r.Get("/", h.ListTables)
		r.Delete("/{id}", h.DeleteTable)
		r.Patch("/{id}/position", h.MoveTable)
	})

	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.CreateOrder)
		r.Get("/", h.ListOrders)
		r.Get("/{id}", h.GetOrder)
		r.Post("/{id}/advance", h.AdvanceOrder)
		r.Post("/{id}/cancel", h.CancelOrder)

		r.Route("/{orderID}/lines", func(r chi.Router) {
			r.Post("/", h.AddOrderLine)
			r.Patch("/{menuItemID}", h.UpdateOrderLine)
		})
	})

	r.Get("/dashboard", h.Dashboard)
	r.Get("/activity", h.ListActivity)

	r.Route("/menu-items", func(r chi.Router) {
		r.Get("/", h.ListMenuItems)
	})
	r.Route("/categories", func(r chi.Router) {
		r.Get("/", h.ListCategories)
	})
}

// Table handlers

func (h *Handler) CreateTable(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CreateTable")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	var req TableCreateRequest
	if !h.decode(w, r, &req, log) {
		return
	}

	validationErrors := ValidateTableCreate(ctx, req)
	if len(validationErrors) > 0 {
		log.Debug("validation failed", "errors", validationErrors)
		aqm.RespondError(w, http.StatusBadRequest, strings.Join(validationErrors, "; "))
		return
	}

	table, err := h.plan.AddTable(ctx, req.Number, req.Name, req.Seats, Point{X: req.X, Y: req.Y})
	if err != nil {
		if errors.Is(err, ErrDuplicateTableNumber) {
			log.Debug("duplicate table number", "number", req.Number)
			aqm.RespondError(w, http.StatusConflict, err.Error())
			return
		}
		log.Error("cannot create table", "error", err)
		aqm.RespondError(w, http.StatusInternalServerError, "Could not create table")
		return
	}

	h.publishTableEvent(ctx, table, event.EventTableAdded)

	links := aqm.RESTfulLinksFor(table)
	w.WriteHeader(http.StatusCreated)
	aqm.RespondSuccess(w, table, links...)
}

func (h *Handler) ListTables(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListTables")
	defer finish()

	aqm.RespondCollection(w, h.plan.Tables(), "table")
}

func (h *Handler) DeleteTable(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.DeleteTable")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	table, _ := h.plan.Get(id)

	if err := h.plan.RemoveTable(ctx, id); err != nil {
		switch {
		case errors.Is(err, ErrTableNotFound):
			aqm.RespondError(w, http.StatusNotFound, "Table not found")
		case errors.Is(err, ErrTableHasOpenOrders):
			log.Info("table removal blocked by open orders", "table_id", id.String())
			aqm.RespondError(w, http.StatusConflict, err.Error())
		default:
			log.Error("cannot delete table", "error", err)
			aqm.RespondError(w, http.StatusInternalServerError, "Could not delete table")
		}
		return
	}

	if table != nil {
		h.publishTableEvent(ctx, table, event.EventTableRemoved)
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) MoveTable(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.MoveTable")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	var req TablePositionRequest
	if !h.decode(w, r, &req, log) {
		return
	}

	table, err := h.plan.MoveTable(ctx, id, Point{X: req.X, Y: req.Y})
	if err != nil {
		if errors.Is(err, ErrTableNotFound) {
			aqm.RespondError(w, http.StatusNotFound, "Table not found")
			return
		}
		log.Error("cannot move table", "error", err, "table_id", id.String())
		aqm.RespondError(w, http.StatusInternalServerError, "Could not move table")
		return
	}

	h.publishTableEvent(ctx, table, event.EventTableMoved)

	aqm.RespondSuccess(w, table)
}

// Order handlers

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CreateOrder")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	var req OrderCreateRequest
	if !h.decode(w, r, &req, log) {
		return
	}

	validationErrors := ValidateOrderCreate(ctx, req)
	if len(validationErrors) > 0 {
		log.Debug("validation failed", "errors", validationErrors)
		aqm.RespondError(w, http.StatusBadRequest, strings.Join(validationErrors, "; "))
		return
	}

	order, err := h.service.CreateDraft(req.TableID, req.Takeaway)
	if err != nil {
		log.Debug("cannot create draft", "error", err)
		aqm.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	order.CustomerName = req.CustomerName
	order.Notes = req.Notes
	if req.Tax != nil {
		order.Tax = *req.Tax
	}
	if req.Discount != nil {
		order.Discount = *req.Discount
	}

	for _, line := range req.Lines {
		item, err := h.menuRepo.GetItem(ctx, line.MenuItemID)
		if err != nil {
			log.Error("cannot load menu item", "error", err, "menu_item_id", line.MenuItemID.String())
			aqm.RespondError(w, http.StatusInternalServerError, "Could not load menu item")
			return
		}
		if item == nil || !item.Available {
			log.Debug("menu item unavailable", "menu_item_id", line.MenuItemID.String())
			aqm.RespondError(w, http.StatusBadRequest, "Menu item is not available")
			return
		}
		if err := order.AddLine(item, line.Quantity); err != nil {
			aqm.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if line.Instructions != "" {
			_ = order.SetInstructions(item.ID, line.Instructions)
		}
	}

	if err := h.service.Submit(ctx, order); err != nil {
		if errors.Is(err, ErrEmptyCart) {
			aqm.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Error("cannot submit order", "error", err)
		aqm.RespondError(w, http.StatusInternalServerError, "Could not create order")
		return
	}

	links := aqm.RESTfulLinksFor(order)
	w.WriteHeader(http.StatusCreated)
	aqm.RespondSuccess(w, order, links...)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetOrder")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	order, err := h.orderRepo.Get(ctx, id)
	if err != nil {
		log.Error("error loading order", "error", err, "id", id.String())
		aqm.RespondError(w, http.StatusNotFound, "Order not found")
		return
	}
	if order == nil {
		aqm.RespondError(w, http.StatusNotFound, "Order not found")
		return
	}

	links := aqm.RESTfulLinksFor(order)
	aqm.RespondSuccess(w, order, links...)
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListOrders")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	filter, err := parseOrderFilter(r)
	if err != nil {
		log.Debug("invalid order filter", "error", err)
		aqm.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	orders, err := h.orderRepo.List(ctx, filter)
	if err != nil {
		log.Error("error retrieving orders", "error", err)
		aqm.RespondError(w, http.StatusInternalServerError, "Could not retrieve orders")
		return
	}

	aqm.RespondCollection(w, orders, "order")
}

func (h *Handler) AdvanceOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.AdvanceOrder")
	defer finish()

	h.transitionOrder(w, r, h.service.Advance)
}

func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CancelOrder")
	defer finish()

	h.transitionOrder(w, r, h.service.Cancel)
}

func (h *Handler) transitionOrder(w http.ResponseWriter, r *http.Request, transition func(context.Context, *Order) error) {
	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	order, err := h.orderRepo.Get(ctx, id)
	if err != nil || order == nil {
		log.Error("order not found", "error", err, "id", id.String())
		aqm.RespondError(w, http.StatusNotFound, "Order not found")
		return
	}

	if err := transition(ctx, order); err != nil {
		if errors.Is(err, ErrNoValidTransition) {
			log.Debug("invalid transition", "status", order.Status, "id", id.String())
			aqm.RespondError(w, http.StatusConflict, err.Error())
			return
		}
		log.Error("cannot update order status", "error", err, "id", id.String())
		aqm.RespondError(w, http.StatusInternalServerError, "Could not update order")
		return
	}

	links := aqm.RESTfulLinksFor(order)
	aqm.RespondSuccess(w, order, links...)
}

func (h *Handler) AddOrderLine(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.AddOrderLine")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	orderID, ok := h.parseUUIDParam(w, r, "orderID", log)
	if !ok {
		return
	}

	var req OrderLineRequest
	if !h.decode(w, r, &req, log) {
		return
	}
	if req.MenuItemID == uuid.Nil || req.Quantity < 1 {
		aqm.RespondError(w, http.StatusBadRequest, "menu_item_id and a positive quantity are required")
		return
	}

	order, err := h.orderRepo.Get(ctx, orderID)
	if err != nil || order == nil {
		log.Error("order not found for line add", "error", err, "order_id", orderID.String())
		aqm.RespondError(w, http.StatusNotFound, "Order not found")
		return
	}

	item, err := h.menuRepo.GetItem(ctx, req.MenuItemID)
	if err != nil {
		log.Error("cannot load menu item", "error", err, "menu_item_id", req.MenuItemID.String())
		aqm.RespondError(w, http.StatusInternalServerError, "Could not load menu item")
		return
	}
	if item == nil || !item.Available {
		aqm.RespondError(w, http.StatusBadRequest, "Menu item is not available")
		return
	}

	if err := order.AddLine(item, req.Quantity); err != nil {
		aqm.RespondError(w, http.StatusConflict, err.Error())
		return
	}
	if req.Instructions != "" {
		_ = order.SetInstructions(item.ID, req.Instructions)
	}

	if err := h.service.SaveLines(ctx, order); err != nil {
		log.Error("cannot save order lines", "error", err, "order_id", orderID.String())
		aqm.RespondError(w, http.StatusInternalServerError, "Could not save order")
		return
	}

	aqm.RespondSuccess(w, order)
}

func (h *Handler) UpdateOrderLine(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.UpdateOrderLine")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	orderID, ok := h.parseUUIDParam(w, r, "orderID", log)
	if !ok {
		return
	}
	menuItemID, ok := h.parseUUIDParam(w, r, "menuItemID", log)
	if !ok {
		return
	}

	var req LineUpdateRequest
	if !h.decode(w, r, &req, log) {
		return
	}

	order, err := h.orderRepo.Get(ctx, orderID)
	if err != nil || order == nil {
		log.Error("order not found for line update", "error", err, "order_id", orderID.String())
		aqm.RespondError(w, http.StatusNotFound, "Order not found")
		return
	}

	if req.Quantity != nil {
		if err := order.SetQuantity(menuItemID, *req.Quantity); err != nil {
			aqm.RespondError(w, http.StatusConflict, err.Error())
			return
		}
	}
	if req.Instructions != nil {
		if err := order.SetInstructions(menuItemID, *req.Instructions); err != nil {
			aqm.RespondError(w, http.StatusConflict, err.Error())
			return
		}
	}

	if err := h.service.SaveLines(ctx, order); err != nil {
		if errors.Is(err, ErrEmptyCart) {
			aqm.RespondError(w, http.StatusBadRequest, "order must keep at least one line")
			return
		}
		log.Error("cannot save order lines", "error", err, "order_id", orderID.String())
		aqm.RespondError(w, http.StatusInternalServerError, "Could not save order")
		return
	}

	aqm.RespondSuccess(w, order)
}

// Dashboard handler

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.Dashboard")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	rng, err := parseRange(r)
	if err != nil {
		log.Debug("invalid dashboard range", "error", err)
		aqm.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var agg Aggregator
	if h.config != nil {
		agg.IncludeCancelledRevenue = h.config.GetStringOrDef("dashboard.include_cancelled_revenue", "false") == "true"
	}

	snapshot, err := h.service.Dashboard(ctx, agg, rng)
	if err != nil {
		log.Error("cannot build dashboard", "error", err)
		aqm.RespondError(w, http.StatusInternalServerError, "Could not build dashboard")
		return
	}

	aqm.RespondSuccess(w, snapshot)
}

// ListActivity returns recent order and table events, newest first. The feed
// is optional; without one the endpoint serves an empty collection.
func (h *Handler) ListActivity(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListActivity")
	defer finish()

	entries := []ActivityEntry{}
	if h.activity != nil {
		entries = h.activity.Recent()
	}
	aqm.RespondCollection(w, entries, "activity")
}

// Catalog handlers (read-only)

func (h *Handler) ListMenuItems(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListMenuItems")
	defer finish()

	log := h.log(r)

	items, err := h.menuRepo.ListItems(r.Context())
	if err != nil {
		log.Error("error retrieving menu items", "error", err)
		aqm.RespondError(w, http.StatusInternalServerError, "Could not retrieve menu items")
		return
	}

	aqm.RespondCollection(w, items, "menu-item")
}

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListCategories")
	defer finish()

	log := h.log(r)

	categories, err := h.menuRepo.ListCategories(r.Context())
	if err != nil {
		log.Error("error retrieving categories", "error", err)
		aqm.RespondError(w, http.StatusInternalServerError, "Could not retrieve categories")
		return
	}

	aqm.RespondCollection(w, categories, "category")
}

// Helpers

func (h *Handler) parseIDParam(w http.ResponseWriter, r *http.Request, log aqm.Logger) (uuid.UUID, bool) {
	return h.parseUUIDParam(w, r, "id", log)
}

func (h *Handler) parseUUIDParam(w http.ResponseWriter, r *http.Request, name string, log aqm.Logger) (uuid.UUID, bool) {
	raw := chi.URLParam(r, name)
	if raw == "" {
		log.Debug("missing parameter", "param", name)
		aqm.RespondError(w, http.StatusBadRequest, "Missing "+name+" parameter")
		return uuid.Nil, false
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		log.Debug("invalid parameter", "param", name, "value", raw)
		aqm.RespondError(w, http.StatusBadRequest, "Invalid "+name+" parameter")
		return uuid.Nil, false
	}

	return id, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target interface{}, log aqm.Logger) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Debug("failed to read request body", "error", err)
		aqm.RespondError(w, http.StatusBadRequest, "Failed to read request body")
		return false
	}

	if err := json.Unmarshal(body, target); err != nil {
		log.Debug("failed to decode request body", "error", err)
		aqm.RespondError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return false
	}

	return true
}

func parseOrderFilter(r *http.Request) (OrderFilter, error) {
	var filter OrderFilter
	q := r.URL.Query()

	if raw := q.Get("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			status := Status(strings.TrimSpace(part))
			if !status.Valid() {
				return filter, errors.New("invalid status filter: " + string(status))
			}
			filter.Statuses = append(filter.Statuses, status)
		}
	}

	if raw := q.Get("table_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, errors.New("invalid table_id parameter")
		}
		filter.TableID = &id
	}

	if raw := q.Get("takeaway"); raw != "" {
		takeaway := raw == "true"
		filter.Takeaway = &takeaway
	}

	var err error
	if filter.From, filter.To, err = parseDateBounds(q.Get("from"), q.Get("to")); err != nil {
		return filter, err
	}

	return filter, nil
}

func parseRange(r *http.Request) (Range, error) {
	q := r.URL.Query()
	from, to, err := parseDateBounds(q.Get("from"), q.Get("to"))
	if err != nil {
		return Range{}, err
	}
	if from.IsZero() && to.IsZero() {
		return DayRange(time.Now(), time.Local), nil
	}
	return Range{From: from, To: to}, nil
}

func parseDateBounds(fromRaw, toRaw string) (time.Time, time.Time, error) {
	var from, to time.Time
	var err error
	if fromRaw != "" {
		if from, err = time.Parse(time.RFC3339, fromRaw); err != nil {
			return from, to, errors.New("invalid from parameter, want RFC3339")
		}
	}
	if toRaw != "" {
		if to, err = time.Parse(time.RFC3339, toRaw); err != nil {
			return from, to, errors.New("invalid to parameter, want RFC3339")
		}
	}
	return from, to, nil
}

func (h *Handler) publishTableEvent(ctx context.Context, table *Table, eventType string) {
	if h.publisher == nil {
		return
	}

	evt := event.TableEvent{
		EventType:   eventType,
		TableID:     table.ID.String(),
		TableNumber: table.Number,
		X:           table.X,
		Y:           table.Y,
		OccurredAt:  time.Now().UTC(),
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		h.logger.Error("cannot marshal table event", "error", err, "table_id", table.ID.String())
		return
	}
	if err := h.publisher.Publish(ctx, event.TablesTopic, payload); err != nil {
		h.logger.Error("cannot publish table event", "error", err, "table_id", table.ID.String())
	}
}

func (h *Handler) log(r *http.Request) aqm.Logger {
	return h.logger.With("request_id", r.Context().Value("request_id"))
}
