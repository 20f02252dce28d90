package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/chainreact/chainreact-sim/sim"
	"github.com/chainreact/chainreact-sim/sim/narrate"
	"github.com/chainreact/chainreact-sim/sim/session"
	"github.com/chainreact/chainreact-sim/sim/store"
)

const defaultWeekInterval = 300 * time.Millisecond

var (
	listenAddr   string        // HTTP listen address
	weekInterval time.Duration // Pause between streamed weeks
)

// serveCmd exposes simulations over HTTP
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve live simulations over HTTP",
	Run: func(cmd *cobra.Command, args []string) {
		env := loadEnv()
		predictor, err := loadPredictor(predictorPath)
		if err != nil {
			logrus.Fatalf("%v", err)
		}

		srv := &server{
			registry:  session.NewRegistry(),
			env:       env,
			predictor: predictor,
			interval:  weekInterval,
		}
		if path := firstNonEmpty(dbPath, env.DBPath); path != "" {
			db, err := store.Open(path)
			if err != nil {
				logrus.Fatalf("opening archive: %v", err)
			}
			defer db.Close()
			srv.archive = db
		}

		addr := firstNonEmpty(listenAddr, env.Addr)
		httpServer := &http.Server{Addr: addr, Handler: srv.routes()}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			httpServer.Shutdown(shutdownCtx)
		}()

		logrus.Infof("listening on %s", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("server failed: %v", err)
		}
	},
}

// server holds the state shared by HTTP handlers.
type server struct {
	registry  *session.Registry
	archive   *store.DB // nil disables archiving
	env       Env
	predictor sim.Predictor
	interval  time.Duration
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /simulations", s.handleStart)
	mux.HandleFunc("POST /simulations/{id}/disrupt", s.handleDisrupt)
	mux.HandleFunc("GET /simulations", s.handleList)
	mux.HandleFunc("GET /simulations/{id}", s.handleGet)
	return mux
}

// Stream messages, one JSON object per line.
type idMessage struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type weekMessage struct {
	Type string `json:"type"`
	sim.WeekState
}

type summaryMessage struct {
	Type    string         `json:"type"`
	Summary sim.RunSummary `json:"summary"`
	Stopped string         `json:"stopped,omitempty"`
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "active_simulations": s.registry.Len()})
}

// handleStart runs a simulation for the request's lifetime and streams it as
// NDJSON: the session id, one message per week, then the final summary.
func (s *server) handleStart(w http.ResponseWriter, r *http.Request) {
	cfg := sim.RunConfig{Narrator: "llm"}
	if r.ContentLength != 0 {
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid run config: %v", err))
			return
		}
	}
	setup, err := buildRun(&cfg, s.env, s.predictor)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess := s.registry.Create(setup.Engine)
	defer s.registry.Remove(sess.ID)
	logrus.Infof("simulation %s started: %d weeks", sess.ID, cfg.WeeksOrDefault())

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	enc := json.NewEncoder(w)
	flusher, _ := w.(http.Flusher)
	send := func(v any) error {
		if err := enc.Encode(v); err != nil {
			return err
		}
		if flusher != nil {
			flusher.Flush()
		}
		return nil
	}

	if err := send(idMessage{Type: "simulation_id", ID: sess.ID}); err != nil {
		return
	}
	summary, runErr := sess.Run(r.Context(), session.RunOptions{
		Weeks:       cfg.WeeksOrDefault(),
		Schedule:    setup.Schedule,
		Disruptions: cfg.Disruptions,
		Interval:    s.interval,
		Publish: func(ws sim.WeekState) error {
			return send(weekMessage{Type: "week", WeekState: ws})
		},
	})
	if runErr != nil {
		logrus.Infof("simulation %s stopped after week %d: %v", sess.ID, sess.Week(), runErr)
		return
	}

	summary.Text = narrate.Summary(r.Context(), setup.Summarizer, summary)
	if err := send(summaryMessage{Type: "final_summary", Summary: summary}); err != nil {
		logrus.Infof("simulation %s: client left before the summary", sess.ID)
	}
	if s.archive != nil {
		if err := s.archive.SaveRun(context.Background(), sess.Archive(cfg, summary)); err != nil {
			logrus.Errorf("archiving simulation %s: %v", sess.ID, err)
		}
	}
}

func (s *server) handleDisrupt(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var d sim.Disruption
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid disruption: %v", err))
		return
	}
	if d.Type == "" || d.Duration < 0 {
		writeError(w, http.StatusBadRequest, "disruption needs a type and a non-negative duration")
		return
	}
	ev, err := s.registry.Inject(r.Context(), id, d)
	if errors.Is(err, session.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Simulation not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("Disruption '%s' injected into simulation %s", d.Normalize().Type, id),
		"event":   ev,
	})
}

func (s *server) handleList(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		writeError(w, http.StatusServiceUnavailable, "archive not configured")
		return
	}
	runs, err := s.archive.ListRuns(r.Context(), 50)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if runs == nil {
		runs = []store.RunInfo{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *server) handleGet(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		writeError(w, http.StatusServiceUnavailable, "archive not configured")
		return
	}
	run, err := s.archive.GetRun(r.Context(), r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Simulation not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Debugf("writing response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"detail": msg})
}
