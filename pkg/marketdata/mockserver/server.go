// Package mockserver provides a local stand-in for the Dukascopy data feed.
// Tests register tick fixtures per instrument hour and point the download
// client at the server's base URL; unregistered hours answer 404 exactly
// like the real feed does for weekends and holidays.
package mockserver

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/ulikunitz/xz/lzma"

	"github.com/rxtech-lab/argo-fx/internal/utils"
)

const (
	standardPointValue = 100000.0
	jpyPointValue      = 1000.0
)

// Tick is one fixture quote. MsOffset counts milliseconds from the start
// of the hour the fixture belongs to; prices are plain floats and are
// scaled to the wire encoding when the fixture is registered.
type Tick struct {
	MsOffset  uint32
	Bid       float64
	Ask       float64
	BidVolume float64
	AskVolume float64
}

// FeedServer serves LZMA compressed hour files over HTTP.
type FeedServer struct {
	mu         sync.RWMutex
	fixtures   map[string][]byte
	requests   []string
	httpServer *http.Server
	listener   net.Listener
}

func NewFeedServer() *FeedServer {
	return &FeedServer{
		mu:         sync.RWMutex{},
		fixtures:   make(map[string][]byte),
		requests:   nil,
		httpServer: nil,
		listener:   nil,
	}
}

// Start begins listening on the given address. Use ":0" or an empty
// address to pick a free port.
func (s *FeedServer) Start(address string) error {
	if address == "" {
		address = ":0"
	}

	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", address, err)
	}

	router := mux.NewRouter()
	router.HandleFunc("/{symbol}/{year}/{month}/{day}/{file}", s.handleHour).Methods(http.MethodGet)

	s.mu.Lock()
	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Unlock()

	go func() {
		_ = s.httpServer.Serve(listener)
	}()

	return nil
}

// Stop shuts the server down gracefully.
func (s *FeedServer) Stop() error {
	s.mu.RLock()
	server := s.httpServer
	s.mu.RUnlock()

	if server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return server.Shutdown(ctx)
}

// BaseURL returns the address clients should download from.
func (s *FeedServer) BaseURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.listener == nil {
		return ""
	}

	return "http://" + s.listener.Addr().String()
}

// AddHour registers the ticks for one instrument hour. The fixture is
// stored encoded, under the same path layout the real feed uses, with
// the month element zero based.
func (s *FeedServer) AddHour(symbol string, hour time.Time, ticks []Tick) error {
	symbol = utils.NormalizeSymbol(symbol)

	point := standardPointValue
	if utils.IsJPYQuoted(symbol) {
		point = jpyPointValue
	}

	body, err := EncodeTicks(ticks, point)
	if err != nil {
		return err
	}

	hour = hour.UTC()
	path := fmt.Sprintf("/%s/%04d/%02d/%02d/%02dh_ticks.bi5",
		symbol, hour.Year(), int(hour.Month())-1, hour.Day(), hour.Hour())

	s.mu.Lock()
	s.fixtures[path] = body
	s.mu.Unlock()

	return nil
}

// AddEmptyHour registers an hour that answers with an empty body, which
// the feed serves for hours with no trading activity.
func (s *FeedServer) AddEmptyHour(symbol string, hour time.Time) error {
	return s.AddHour(symbol, hour, nil)
}

// Requests returns the request paths seen so far, including misses.
func (s *FeedServer) Requests() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	paths := make([]string, len(s.requests))
	copy(paths, s.requests)

	return paths
}

func (s *FeedServer) handleHour(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.requests = append(s.requests, r.URL.Path)
	body, ok := s.fixtures[r.URL.Path]
	s.mu.Unlock()

	if !ok {
		http.NotFound(w, r)

		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// EncodeTicks packs ticks into the 20 byte big endian record layout and
// compresses the result as a raw LZMA stream. Encoding nil ticks yields
// an empty body.
func EncodeTicks(ticks []Tick, point float64) ([]byte, error) {
	if len(ticks) == 0 {
		return nil, nil
	}

	var compressed bytes.Buffer

	lzmaWriter, err := lzma.NewWriter(&compressed)
	if err != nil {
		return nil, fmt.Errorf("failed to open LZMA writer: %w", err)
	}

	for _, t := range ticks {
		record := struct {
			MsOffset  uint32
			Ask       uint32
			Bid       uint32
			AskVolume float32
			BidVolume float32
		}{
			MsOffset:  t.MsOffset,
			Ask:       uint32(t.Ask*point + 0.5),
			Bid:       uint32(t.Bid*point + 0.5),
			AskVolume: float32(t.AskVolume),
			BidVolume: float32(t.BidVolume),
		}

		if err := binary.Write(lzmaWriter, binary.BigEndian, record); err != nil {
			return nil, fmt.Errorf("failed to encode tick record: %w", err)
		}
	}

	if err := lzmaWriter.Close(); err != nil {
		return nil, fmt.Errorf("failed to close LZMA writer: %w", err)
	}

	return compressed.Bytes(), nil
}
