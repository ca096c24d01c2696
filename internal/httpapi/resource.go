package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/jinzhu/inflection"
	"go.uber.org/zap"

	"github.com/goliatone/go-crud-admin/crud"
)

// maxBodyBytes bounds request bodies, bulk payloads included.
const maxBodyBytes = 1 << 20

// resource serves one entity under /api/v1/<plural>.
type resource[T crud.Model] struct {
	engine *crud.Engine[T]
	logger *zap.Logger
	label  string
}

// Register mounts the entity's routes on r and returns the path it used.
func Register[T crud.Model](r *mux.Router, engine *crud.Engine[T], logger *zap.Logger) string {
	name := engine.Schema().Name
	path := "/api/v1/" + inflection.Plural(name)
	if logger == nil {
		logger = zap.NewNop()
	}

	res := &resource[T]{
		engine: engine,
		logger: logger.With(zap.String("resource", name)),
		label:  strings.ToUpper(name[:1]) + name[1:],
	}

	r.HandleFunc(path, res.get).Methods(http.MethodGet)
	r.HandleFunc(path, res.create).Methods(http.MethodPost)
	r.HandleFunc(path, res.update).Methods(http.MethodPut, http.MethodPatch)
	r.HandleFunc(path, res.delete).Methods(http.MethodDelete)
	r.HandleFunc(path+"/cache", res.purge).Methods(http.MethodDelete)

	return path
}

func (h *resource[T]) get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if id := r.URL.Query().Get("id"); id != "" {
		record, err := h.engine.Get(ctx, id)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, record, h.label+" fetched successfully")
		return
	}

	params, err := h.engine.ParseParams(r.URL.Query())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	page, err := h.engine.List(ctx, params)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, page, inflection.Plural(h.label)+" fetched successfully")
}

func (h *resource[T]) create(w http.ResponseWriter, r *http.Request) {
	record := h.engine.Schema().New()
	if err := h.decode(w, r, record); err != nil {
		writeError(w, h.logger, err)
		return
	}

	created, err := h.engine.Create(r.Context(), record)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, created, h.label+" created successfully")
}

func (h *resource[T]) update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if isBulk(r) {
		var items []crud.UpdateDescriptor
		if err := h.decode(w, r, &items); err != nil {
			writeError(w, h.logger, err)
			return
		}
		report, err := h.engine.BulkUpdate(ctx, items)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, report, "Bulk update completed")
		return
	}

	fields := map[string]any{}
	if err := h.decode(w, r, &fields); err != nil {
		writeError(w, h.logger, err)
		return
	}
	id := takeID(r, fields)

	updated, err := h.engine.Update(ctx, id, fields)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, updated, h.label+" updated successfully")
}

func (h *resource[T]) delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if isBulk(r) {
		var body struct {
			IDs []string `json:"ids"`
		}
		if err := h.decode(w, r, &body); err != nil {
			writeError(w, h.logger, err)
			return
		}
		report, err := h.engine.BulkDelete(ctx, body.IDs)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, report, "Bulk delete operation completed")
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		fields := map[string]any{}
		if err := h.decode(w, r, &fields); err != nil {
			writeError(w, h.logger, err)
			return
		}
		id = takeID(r, fields)
	}

	if err := h.engine.Delete(ctx, id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"deletedCount": 1}, h.label+" deleted successfully")
}

func (h *resource[T]) purge(w http.ResponseWriter, r *http.Request) {
	h.engine.InvalidateCache(r.Context())
	writeJSON(w, http.StatusOK, nil, h.label+" cache cleared")
}

// decode reads a JSON body into v. Malformed bodies are validation errors.
func (h *resource[T]) decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return &crud.ValidationError{
			Entity: h.engine.Schema().Name,
			Err:    fmt.Errorf("malformed request body: %w", err),
		}
	}
	return nil
}

func isBulk(r *http.Request) bool {
	return r.URL.Query().Get("bulk") == "true"
}

// takeID resolves the target identifier from ?id= or the body's "id" field,
// removing the latter from fields.
func takeID(r *http.Request, fields map[string]any) string {
	id := r.URL.Query().Get("id")
	if raw, ok := fields["id"]; ok {
		if s, isString := raw.(string); isString && id == "" {
			id = s
		}
		delete(fields, "id")
	}
	return id
}
