package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"llm-kit/internal/app"
	"llm-kit/internal/embeddings"
	"llm-kit/internal/httputil"
	"llm-kit/internal/llm"
	"llm-kit/internal/metrics"
	"llm-kit/internal/outparse"
	"llm-kit/internal/schema"
)

const shutdownTimeout = 10 * time.Second

type embedDocumentsRequest struct {
	Texts []string `json:"texts" validate:"required,max=2048"`
}

type embedQueryRequest struct {
	Text string `json:"text" validate:"required"`
}

type similarityRequest struct {
	Query string   `json:"query" validate:"required"`
	Texts []string `json:"texts" validate:"required,max=2048"`
}

type parseRequest struct {
	Text        string           `json:"text" validate:"required_without=Generations"`
	Generations []llm.Generation `json:"generations" validate:"omitempty,min=1"`
	Partial     bool             `json:"partial"`
}

type generateRequest struct {
	Prompt string `json:"prompt" validate:"required,max=32000"`
}

func main() {
	deps, err := app.Build()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	defer deps.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", deps.Config.Port),
		Handler:           newRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		deps.Log.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		deps.Log.Error("server stopped", "err", err)
		os.Exit(1)
	}
	deps.Log.Info("server stopped")
}

func newRouter(deps app.Deps) http.Handler {
	r := httputil.NewRouter(deps.Log)

	r.Post("/api/embeddings/documents", embedDocumentsHandler(deps))
	r.Post("/api/embeddings/query", embedQueryHandler(deps))
	r.Post("/api/embeddings/similarity", similarityHandler(deps))

	r.Route("/api/schemas", func(r chi.Router) {
		r.Get("/", listSchemasHandler(deps))
		r.Get("/{name}", getSchemaHandler(deps))
		r.Put("/{name}", putSchemaHandler(deps))
		r.Delete("/{name}", deleteSchemaHandler(deps))
		r.Get("/{name}/instructions", instructionsHandler(deps))
		r.Post("/{name}/parse", parseHandler(deps))
		r.Post("/{name}/generate", generateHandler(deps))
	})

	r.Get("/healthz", httputil.HealthHandler(deps.Log))
	r.Handle("/metrics", promhttp.Handler())
	return r
}

func embedDocumentsHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req embedDocumentsRequest
		if err := httputil.DecodeJSON(r, deps.Config.MaxBodySize, &req); err != nil {
			httputil.Fail(deps.Log, w, "invalid payload", err, http.StatusBadRequest)
			return
		}
		if err := httputil.Validator.Struct(&req); err != nil {
			httputil.ValidationError(deps.Log, w, err)
			return
		}

		vecs, err := deps.Embedder.EmbedDocuments(r.Context(), req.Texts)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to embed documents", err, http.StatusBadGateway)
			return
		}
		metrics.EmbeddedTexts.WithLabelValues("documents").Add(float64(len(req.Texts)))

		size := 0
		if len(vecs) > 0 {
			size = len(vecs[0])
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"embeddings": vecs,
			"count":      len(vecs),
			"size":       size,
		})
	}
}

func embedQueryHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req embedQueryRequest
		if err := httputil.DecodeJSON(r, deps.Config.MaxBodySize, &req); err != nil {
			httputil.Fail(deps.Log, w, "invalid payload", err, http.StatusBadRequest)
			return
		}
		if err := httputil.Validator.Struct(&req); err != nil {
			httputil.ValidationError(deps.Log, w, err)
			return
		}

		vec, err := deps.Embedder.EmbedQuery(r.Context(), req.Text)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to embed query", err, http.StatusBadGateway)
			return
		}
		metrics.EmbeddedTexts.WithLabelValues("query").Inc()

		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"embedding": vec,
			"size":      len(vec),
		})
	}
}

func similarityHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req similarityRequest
		if err := httputil.DecodeJSON(r, deps.Config.MaxBodySize, &req); err != nil {
			httputil.Fail(deps.Log, w, "invalid payload", err, http.StatusBadRequest)
			return
		}
		if err := httputil.Validator.Struct(&req); err != nil {
			httputil.ValidationError(deps.Log, w, err)
			return
		}

		ranked, err := embeddings.Rank(r.Context(), deps.Embedder, req.Query, req.Texts)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to rank texts", err, http.StatusBadGateway)
			return
		}
		metrics.EmbeddedTexts.WithLabelValues("query").Inc()
		metrics.EmbeddedTexts.WithLabelValues("documents").Add(float64(len(req.Texts)))

		httputil.WriteJSON(w, http.StatusOK, map[string]any{"results": ranked})
	}
}

func listSchemasHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]any{"schemas": deps.Schemas.List()})
	}
}

func getSchemaHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry, ok := lookupSchema(deps, w, r)
		if !ok {
			return
		}
		httputil.WriteJSON(w, http.StatusOK, entry)
	}
}

func putSchemaHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		body, err := io.ReadAll(io.LimitReader(r.Body, deps.Config.MaxBodySize+1))
		if err == nil && int64(len(body)) > deps.Config.MaxBodySize {
			err = fmt.Errorf("body too large (max %d bytes)", deps.Config.MaxBodySize)
		}
		if err != nil {
			httputil.Fail(deps.Log, w, "invalid payload", err, http.StatusBadRequest)
			return
		}
		s, err := schema.Decode(body, "json")
		if err != nil {
			httputil.Fail(deps.Log, w, "invalid schema", err, http.StatusBadRequest)
			return
		}
		version, err := deps.Schemas.Save(name, s)
		if err != nil {
			httputil.Fail(deps.Log, w, "invalid schema", err, http.StatusBadRequest)
			return
		}
		deps.Log.Info("schema saved", "schema", name, "version", version)
		httputil.WriteJSON(w, http.StatusOK, map[string]any{"name": name, "version": version})
	}
}

func deleteSchemaHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		if err := deps.Schemas.Delete(name); err != nil {
			httputil.Fail(deps.Log, w, "schema not found", err, http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func instructionsHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry, ok := lookupSchema(deps, w, r)
		if !ok {
			return
		}
		p, err := newParser(entry)
		if err != nil {
			httputil.Fail(deps.Log, w, "invalid schema", err, http.StatusInternalServerError)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{"instructions": p.FormatInstructions()})
	}
}

func parseHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry, ok := lookupSchema(deps, w, r)
		if !ok {
			return
		}
		var req parseRequest
		if err := httputil.DecodeJSON(r, deps.Config.MaxBodySize, &req); err != nil {
			httputil.Fail(deps.Log, w, "invalid payload", err, http.StatusBadRequest)
			return
		}
		if err := httputil.Validator.Struct(&req); err != nil {
			httputil.ValidationError(deps.Log, w, err)
			return
		}
		p, err := newParser(entry)
		if err != nil {
			httputil.Fail(deps.Log, w, "invalid schema", err, http.StatusInternalServerError)
			return
		}

		gens := req.Generations
		if len(gens) == 0 {
			gens = []llm.Generation{{Text: req.Text}}
		}
		var opts []outparse.ParseOption
		if req.Partial {
			opts = append(opts, outparse.WithPartial())
		}
		obj, err := p.ParseResult(gens, opts...)
		metrics.ObserveParse(entry.Name, err)
		writeParseResult(deps, w, entry, obj, err)
	}
}

func generateHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry, ok := lookupSchema(deps, w, r)
		if !ok {
			return
		}
		var req generateRequest
		if err := httputil.DecodeJSON(r, deps.Config.MaxBodySize, &req); err != nil {
			httputil.Fail(deps.Log, w, "invalid payload", err, http.StatusBadRequest)
			return
		}
		if err := httputil.Validator.Struct(&req); err != nil {
			httputil.ValidationError(deps.Log, w, err)
			return
		}
		p, err := newParser(entry)
		if err != nil {
			httputil.Fail(deps.Log, w, "invalid schema", err, http.StatusInternalServerError)
			return
		}

		start := time.Now()
		obj, err := outparse.Generate(r.Context(), deps.LLM, p, req.Prompt)
		metrics.GenerateDuration.WithLabelValues(entry.Name).Observe(time.Since(start).Seconds())
		metrics.ObserveParse(entry.Name, err)

		var perr *outparse.ParseError
		if err != nil && !errors.As(err, &perr) {
			httputil.Fail(deps.Log, w, "llm failed", err, http.StatusBadGateway)
			return
		}
		writeParseResult(deps, w, entry, obj, err)
	}
}

// newParser builds an untyped parser for a stored schema, naming untitled
// schemas after their registry entry.
func newParser(entry schema.Entry) (*outparse.Parser[map[string]any], error) {
	s := *entry.Schema
	if s.Title == "" {
		s.Title = entry.Name
	}
	return outparse.NewParser[map[string]any](&s)
}

func lookupSchema(deps app.Deps, w http.ResponseWriter, r *http.Request) (schema.Entry, bool) {
	name := chi.URLParam(r, "name")
	entry, err := deps.Schemas.Get(name)
	if err != nil {
		httputil.Fail(deps.Log, w, "schema not found", err, http.StatusNotFound)
		return schema.Entry{}, false
	}
	return entry, true
}

func writeParseResult(deps app.Deps, w http.ResponseWriter, entry schema.Entry, obj map[string]any, err error) {
	id := uuid.New()
	log := deps.Log.With("parse_id", id, "schema", entry.Name)

	var perr *outparse.ParseError
	if errors.As(err, &perr) {
		log.Warn("output rejected", "kind", perr.Kind, "err", perr.Err)
		httputil.WriteJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"id":         id,
			"error":      perr.Message,
			"kind":       perr.Kind,
			"llm_output": perr.LLMOutput,
			"schema":     perr.SchemaName,
		})
		return
	}
	if err != nil {
		httputil.Fail(log, w, "parse failed", err, http.StatusInternalServerError)
		return
	}
	log.Debug("output parsed")
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"id":      id,
		"schema":  entry.Name,
		"version": entry.Version,
		"object":  obj,
	})
}
