package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/PizzaHomicide/hlsplay/internal/log"
	"github.com/go-chi/chi/v5"
)

const shutdownTimeout = 5 * time.Second

// Router mounts the metrics endpoint and a liveness check
func Router(r *Recorder) http.Handler {
	router := chi.NewRouter()
	router.Method(http.MethodGet, "/metrics", r.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return router
}

// Server serves the metrics endpoint in the background
type Server struct {
	srv      *http.Server
	listener net.Listener
	done     chan struct{}
}

// Start listens on addr and serves the recorder's metrics until Shutdown
func Start(addr string, r *Recorder) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	s := &Server{
		srv: &http.Server{
			Handler:           Router(r),
			ReadHeaderTimeout: 5 * time.Second,
		},
		listener: listener,
		done:     make(chan struct{}),
	}

	go func() {
		defer close(s.done)
		if err := s.srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Metrics server error", "error", err)
		}
	}()

	log.Info("Metrics server listening", "addr", listener.Addr().String())
	return s, nil
}

// Addr returns the address the server listens on
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Shutdown drains connections and stops the server
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := s.srv.Shutdown(ctx)
	<-s.done
	return err
}
