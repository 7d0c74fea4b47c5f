package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus"

	"github.com/nektos/stackscope/pkg/common"
	"github.com/nektos/stackscope/pkg/model"
	"github.com/nektos/stackscope/pkg/render"
	"github.com/nektos/stackscope/pkg/runtime"
	"github.com/nektos/stackscope/pkg/store"
)

const (
	urlBase = "/api"

	maxProgramSize = 1 << 20

	defaultStackLimit = 100
	maxStackLimit     = 1000
)

// ProgramRunner runs a single program
type ProgramRunner interface {
	RunProgram(ctx context.Context, program *model.Program) *runtime.Result
}

// Handler serves the run history as JSON
type Handler struct {
	store    *store.Store
	runner   ProgramRunner
	router   *httprouter.Router
	listener net.Listener
	server   *http.Server
	logger   logrus.FieldLogger
}

// NewHandler builds the API routes without listening
func NewHandler(s *store.Store, runner ProgramRunner, logger logrus.FieldLogger) *Handler {
	h := &Handler{
		store:  s,
		runner: runner,
	}

	if logger == nil {
		discard := logrus.New()
		discard.Out = io.Discard
		logger = discard
	}
	h.logger = logger.WithField("module", "server")

	router := httprouter.New()
	router.GET(urlBase+"/runs", h.middleware(h.list))
	router.POST(urlBase+"/runs", h.middleware(h.run))
	router.GET(urlBase+"/runs/:id", h.middleware(h.get))
	router.GET(urlBase+"/runs/:id/trace", h.middleware(h.trace))
	router.DELETE(urlBase+"/runs/:id", h.middleware(h.delete))
	h.router = router

	return h
}

// StartHandler serves the API on addr in the background
func StartHandler(addr string, s *store.Store, runner ProgramRunner, logger logrus.FieldLogger) (*Handler, error) {
	h := NewHandler(s, runner, logger)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	server := &http.Server{
		ReadHeaderTimeout: 2 * time.Second,
		Handler:           h.router,
	}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, net.ErrClosed) {
			h.logger.Errorf("http serve: %v", err)
		}
	}()
	h.listener = listener
	h.server = server

	return h, nil
}

// ServeHTTP dispatches to the API routes
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// URL is the base address of a started handler
func (h *Handler) URL() string {
	return fmt.Sprintf("http://%s", h.listener.Addr().String())
}

// Shutdown stops accepting requests and waits for active ones
func (h *Handler) Shutdown(ctx context.Context) error {
	if h == nil || h.server == nil {
		return nil
	}
	return h.server.Shutdown(ctx)
}

func (h *Handler) Close() error {
	if h == nil {
		return nil
	}
	var errs []error
	if h.server != nil {
		errs = append(errs, h.server.Close())
		h.server = nil
	}
	if h.listener != nil {
		if err := h.listener.Close(); !errors.Is(err, net.ErrClosed) {
			errs = append(errs, err)
		}
		h.listener = nil
	}
	return errors.Join(errs...)
}

// GET /api/runs
func (h *Handler) list(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		h.responseJSON(w, r, 400, err)
		return
	}
	records, err := h.store.List(r.URL.Query().Get("program"), limit)
	if err != nil {
		h.responseJSON(w, r, 500, err)
		return
	}
	summaries := make([]*store.Record, 0, len(records))
	for _, rec := range records {
		summaries = append(summaries, rec.Summary())
	}
	h.responseJSON(w, r, 200, map[string]any{
		"runs": summaries,
	})
}

// POST /api/runs
func (h *Handler) run(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	program, err := model.ReadProgram(http.MaxBytesReader(w, r.Body, maxProgramSize))
	if err != nil {
		h.responseJSON(w, r, 400, err)
		return
	}

	ctx := common.WithLogger(r.Context(), h.logger.WithField("program", program.Name))
	result := h.runner.RunProgram(ctx, program)
	rec := store.NewRecord(program, result)
	if err := h.store.Save(rec); err != nil {
		h.responseJSON(w, r, 500, err)
		return
	}
	rec.Events = nil
	h.responseJSON(w, r, 201, rec)
}

// GET /api/runs/:id
func (h *Handler) get(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	rec, ok := h.lookup(w, r, params)
	if !ok {
		return
	}
	rec.Events = nil
	h.responseJSON(w, r, 200, rec)
}

// GET /api/runs/:id/trace
func (h *Handler) trace(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	rec, ok := h.lookup(w, r, params)
	if !ok {
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		h.responseJSON(w, r, 400, err)
		return
	}
	limit, err := queryInt(r, "limit", defaultStackLimit)
	if err != nil {
		h.responseJSON(w, r, 400, err)
		return
	}
	limit = min(max(limit, 1), maxStackLimit)

	events := rec.Events
	if events == nil {
		events = []*runtime.TraceEvent{}
	}
	stacks, more := render.StackSnapshots(rec.Events, offset, limit)
	if stacks == nil {
		stacks = [][]string{}
	}
	h.responseJSON(w, r, 200, map[string]any{
		"id":         rec.ID,
		"runId":      rec.RunID,
		"status":     rec.Status,
		"events":     events,
		"stacks":     stacks,
		"morePushes": more,
	})
}

// queryInt reads a non-negative integer query parameter
func queryInt(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s %q", name, v)
	}
	return n, nil
}

// DELETE /api/runs/:id
func (h *Handler) delete(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	rec, ok := h.lookup(w, r, params)
	if !ok {
		return
	}
	if err := h.store.Delete(rec.ID); err != nil {
		h.responseJSON(w, r, 500, err)
		return
	}
	h.responseJSON(w, r, 200)
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request, params httprouter.Params) (*store.Record, bool) {
	rec, err := h.store.Lookup(params.ByName("id"))
	if errors.Is(err, store.ErrNotFound) {
		h.responseJSON(w, r, 404, err)
		return nil, false
	}
	if err != nil {
		h.responseJSON(w, r, 500, err)
		return nil, false
	}
	return rec, true
}

func (h *Handler) middleware(handler httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
		h.logger.Debugf("%s %s", r.Method, r.RequestURI)
		handler(w, r, params)
	}
}

func (h *Handler) responseJSON(w http.ResponseWriter, r *http.Request, code int, v ...any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	var data []byte
	if len(v) == 0 || v[0] == nil {
		data, _ = json.Marshal(struct{}{})
	} else if err, ok := v[0].(error); ok {
		h.logger.Errorf("%v %v: %v", r.Method, r.RequestURI, err)
		data, _ = json.Marshal(map[string]any{
			"error": err.Error(),
		})
	} else {
		data, _ = json.Marshal(v[0])
	}
	w.WriteHeader(code)
	_, _ = w.Write(data)
}
