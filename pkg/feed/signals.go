package feed

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/rendezvous-app/webclient/pkg/logger"
)

// ServeSignals streams the Summary as datastar signals: once on connect and
// again after every store change, until the client goes away.
func (f *Feed) ServeSignals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sub := f.state.Subscribe(ctx)
	defer func() { _ = sub.Close() }()

	sse := datastar.NewSSE(w, r)
	if err := sse.MarshalAndPatchSignals(f.Summary()); err != nil {
		f.logger.DebugContext(ctx, "signals stream closed", logger.Error(err))
		return
	}

	changes := sub.Receive(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-changes:
			if !ok {
				return
			}
			if err := sse.MarshalAndPatchSignals(f.Summary()); err != nil {
				f.logger.DebugContext(ctx, "signals stream closed", logger.Error(err))
				return
			}
		}
	}
}

// ServeOpen marks the {id} item read and redirects the widget to its target.
func (f *Feed) ServeOpen(w http.ResponseWriter, r *http.Request) {
	target, ok := f.Open(r.Context(), chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, ErrUnknownNotification.Error(), http.StatusNotFound)
		return
	}
	sse := datastar.NewSSE(w, r)
	if err := sse.Redirect(target.Path); err != nil {
		f.logger.DebugContext(r.Context(), "redirect not delivered", logger.Error(err))
	}
}

// ServeMarkAllRead runs the bulk action. Persistence failures are reported
// with 502 after the local state has already changed.
func (f *Feed) ServeMarkAllRead(w http.ResponseWriter, r *http.Request) {
	if err := f.MarkAllRead(r.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Routes mounts the widget endpoints.
func (f *Feed) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/signals", f.ServeSignals)
	r.Post("/open/{id}", f.ServeOpen)
	r.Post("/read-all", f.ServeMarkAllRead)
	return r
}
