// Package server exposes the paired pedestrian dataset over HTTP, and exports
// canonical labels into a database.
package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/pairedped/pkg/dataset"
	"github.com/cyclopcam/pairedped/pkg/storage"
	"github.com/cyclopcam/pairedped/server/exportdb"
	"github.com/julienschmidt/httprouter"
)

type Server struct {
	Log    logs.Log
	Config *Config
	Export *exportdb.ExportDB

	signalIn   chan os.Signal
	httpServer *http.Server
	httpRouter *httprouter.Router
	store      storage.Storage
	splits     map[string]*dataset.Dataset
	exportLock sync.Mutex // Only one export runs at a time
}

// NewServer opens the dataset store, every configured split, and the export DB
func NewServer(log logs.Log, cfg *Config) (*Server, error) {
	store, err := OpenStorage(log, cfg.DatasetStorage)
	if err != nil {
		return nil, err
	}
	return newServer(log, cfg, store, nil)
}

func newServer(log logs.Log, cfg *Config, store storage.Storage, decoder dataset.ImageDecoder) (*Server, error) {
	splits := map[string]*dataset.Dataset{}
	for _, name := range cfg.SplitNames() {
		ds, err := cfg.OpenSplit(log, store, name, decoder)
		if err != nil {
			return nil, err
		}
		splits[name] = ds
	}

	exportDB, err := exportdb.Open(log, cfg.DB)
	if err != nil {
		return nil, err
	}

	s := &Server{
		Log:    log,
		Config: cfg,
		Export: exportDB,
		store:  store,
		splits: splits,
	}
	s.setupHttpRoutes()
	return s, nil
}

// Split returns the dataset of a split, or nil
func (s *Server) Split(name string) *dataset.Dataset {
	return s.splits[name]
}

// port example: ":8090"
func (s *Server) ListenHTTP(port string) error {
	s.Log.Infof("Listening on %v", port)
	s.httpServer = &http.Server{
		Addr:    port,
		Handler: s.httpRouter,
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) ListenForKillSignals() {
	s.signalIn = make(chan os.Signal, 1)
	signal.Notify(s.signalIn, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig, ok := <-s.signalIn
		if ok {
			s.Log.Infof("Received OS signal '%v'. Shutting down", sig.String())
			s.Shutdown()
		}
	}()
}

func (s *Server) Shutdown() {
	s.Log.Infof("Shutdown")
	if s.signalIn != nil {
		signal.Stop(s.signalIn)
		close(s.signalIn)
		s.signalIn = nil
	}
	if s.httpServer != nil {
		s.Log.Infof("Closing HTTP server")
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.Log.Warnf("HTTP server shutdown error: %v", err)
		}
	}
	s.Export.Close()
	s.Log.Infof("Shutdown complete")
}
