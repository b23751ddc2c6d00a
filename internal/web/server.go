// Package web serves the dashboard: a small HTML page, a JSON report
// API and an SSE stream of portfolio snapshots.
package web

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/acme/autocert"

	"github.com/elobry/cryptofolio/internal/domain"
)

const snapshotPollInterval = 3 * time.Second

type reporter interface {
	Sync(ctx context.Context) error
	Overview(ctx context.Context, year int) (domain.Overview, error)
	Positions(ctx context.Context) ([]domain.Position, error)
	Performance(ctx context.Context) (domain.PerformanceReport, error)
	TaxReport(ctx context.Context, year int, gains, losses decimal.Decimal) (domain.TaxReport, error)
}

type snapshotReader interface {
	SnapshotsAfter(index uint64) ([]domain.PortfolioSnapshotRecord, error)
}

// Server exposes HTTP endpoints serving the HTML UI, the report API and
// an SSE stream of portfolio snapshots.
type Server struct {
	Addr    string
	Tracker reporter
	Store   snapshotReader
}

// NewServer creates a new web server instance.
func NewServer(addr string, tracker reporter, store snapshotReader) *Server {
	return &Server{Addr: addr, Tracker: tracker, Store: store}
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/api/portfolio", s.handlePortfolio)
	mux.HandleFunc("/api/positions", s.handlePositions)
	mux.HandleFunc("/api/performance", s.handlePerformance)
	mux.HandleFunc("/api/taxes", s.handleTaxes)
	mux.HandleFunc("/api/sync", s.handleSync)
	mux.HandleFunc("/portfolio/stream", s.handlePortfolioStream)
	return mux
}

// Start runs the HTTP server (blocking) and shuts it down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	server := &http.Server{
		Addr:              s.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// StartWithAutoTLS runs an HTTPS server with automatic TLS certificates via ACME.
// It also starts an HTTP server on port 80 to handle ACME HTTP-01 challenges.
func (s *Server) StartWithAutoTLS(ctx context.Context, domains []string, cacheDir string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(domains) == 0 {
		return fmt.Errorf("no domains provided for automatic TLS")
	}
	if cacheDir == "" {
		cacheDir = "cert-cache"
	}

	manager := &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		HostPolicy: autocert.HostWhitelist(domains...),
		Cache:      autocert.DirCache(cacheDir),
	}

	// HTTP server on port 80 for ACME challenges and HTTP->HTTPS redirects.
	httpSrv := &http.Server{
		Addr:              ":80",
		Handler:           manager.HTTPHandler(nil),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	tlsConfig := manager.TLSConfig()
	tlsConfig.MinVersion = tls.VersionTLS12

	httpsSrv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
		TLSConfig:         tlsConfig,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http (acme) server shutdown error: %v", err)
		}
		if err := httpsSrv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("https server shutdown error: %v", err)
		}
	}()

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http (acme) server error: %v", err)
		}
	}()

	if err := httpsSrv.ListenAndServeTLS("", ""); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, indexHTML)
}

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	year, err := parseYear(r.URL.Query().Get("year"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	overview, err := s.Tracker.Overview(r.Context(), year)
	if err != nil {
		http.Error(w, "failed to build overview", http.StatusInternalServerError)
		log.Printf("portfolio overview: %v", err)
		return
	}
	writeJSON(w, overview)
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	positions, err := s.Tracker.Positions(r.Context())
	if err != nil {
		http.Error(w, "failed to list positions", http.StatusInternalServerError)
		log.Printf("positions: %v", err)
		return
	}
	writeJSON(w, positions)
}

func (s *Server) handlePerformance(w http.ResponseWriter, r *http.Request) {
	report, err := s.Tracker.Performance(r.Context())
	if err != nil {
		http.Error(w, "failed to build performance report", http.StatusInternalServerError)
		log.Printf("performance report: %v", err)
		return
	}
	writeJSON(w, report)
}

func (s *Server) handleTaxes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	year, err := parseYear(q.Get("year"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if year == 0 {
		year = time.Now().Year()
	}

	gains, err := parseAmount(q.Get("gains"))
	if err != nil {
		http.Error(w, "invalid gains parameter", http.StatusBadRequest)
		return
	}
	losses, err := parseAmount(q.Get("losses"))
	if err != nil {
		http.Error(w, "invalid losses parameter", http.StatusBadRequest)
		return
	}

	report, err := s.Tracker.TaxReport(r.Context(), year, gains, losses)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, report)
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := s.Tracker.Sync(r.Context()); err != nil {
		http.Error(w, "sync failed", http.StatusBadGateway)
		log.Printf("manual sync: %v", err)
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handlePortfolioStream(w http.ResponseWriter, r *http.Request) {
	if s.Store == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, "snapshot store not available")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// send a comment heartbeat every 30s so proxies keep connection
	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	pollTicker := time.NewTicker(snapshotPollInterval)
	defer pollTicker.Stop()

	lastIndex := parseLastEventID(r.Header.Get("Last-Event-ID"), r.URL.Query().Get("last_event_id"))
	sendSnapshots := func() error {
		records, err := s.Store.SnapshotsAfter(lastIndex)
		if err != nil {
			return err
		}
		for _, record := range records {
			payload, err := json.Marshal(record.Snapshot)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "id: %d\n", record.Index)
			fmt.Fprintf(w, "event: portfolio\n")
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
			lastIndex = record.Index
		}
		return nil
	}

	if err := sendSnapshots(); err != nil {
		http.Error(w, "failed to load snapshots", http.StatusInternalServerError)
		log.Printf("portfolio stream initial load: %v", err)
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprintf(w, ": ping\n\n")
			flusher.Flush()
		case <-pollTicker.C:
			if err := sendSnapshots(); err != nil {
				log.Printf("portfolio stream poll err: %v", err)
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response: %v", err)
	}
}

// parseYear accepts an empty string as "all years" (0).
func parseYear(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year < 0 {
		return 0, fmt.Errorf("invalid year parameter %q", raw)
	}
	return year, nil
}

func parseAmount(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}

// parseLastEventID extracts an SSE event ID from either the Last-Event-ID header or a query parameter.
// The header is preferred; the query parameter allows manual reconnects to resume from a known index.
func parseLastEventID(headerVal, queryVal string) uint64 {
	idStr := strings.TrimSpace(headerVal)
	if idStr == "" {
		idStr = strings.TrimSpace(queryVal)
	}
	if idStr == "" {
		return 0
	}

	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		log.Printf("invalid last event id %q: %v", idStr, err)
		return 0
	}
	return id
}

// Single-page dashboard: overview cards, a value chart and a positions table.
const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>Cryptofolio</title>
  <script src="https://cdn.jsdelivr.net/npm/chart.js"></script>
  <link href="https://fonts.googleapis.com/css2?family=Space+Mono:wght@400;700&display=swap" rel="stylesheet">
  <style>
    :root {
      --bg:#ffffff;
      --ink:#111111;
      --ink-mid:#4d4d4d;
      --panel:#f6f6f6;
      --up:#0a7d33;
      --down:#c01616;
    }
    * { box-sizing:border-box; }
    body {
      margin:0;
      min-height:100vh;
      display:flex;
      align-items:center;
      justify-content:center;
      padding:2rem;
      background:var(--bg);
      color:var(--ink);
      font-family:'Space Mono','JetBrains Mono',monospace;
    }
    #app {
      width:min(1100px, 96vw);
      background:var(--panel);
      border:3px solid var(--ink);
      padding:2rem;
      box-shadow:12px 12px 0 rgba(0,0,0,.15);
      display:flex;
      flex-direction:column;
      gap:1.5rem;
    }
    h1 { margin:0; font-size:1.4rem; letter-spacing:.08em; text-transform:uppercase; }
    .cards { display:grid; grid-template-columns:repeat(3, 1fr); gap:1rem; }
    .card { border:2px solid var(--ink); padding:1rem; background:var(--bg); }
    .card .label { font-size:.7rem; color:var(--ink-mid); text-transform:uppercase; }
    .card .value { font-size:1.3rem; font-weight:700; margin-top:.4rem; }
    .card .value.up { color:var(--up); }
    .card .value.down { color:var(--down); }
    table { width:100%; border-collapse:collapse; background:var(--bg); border:2px solid var(--ink); }
    th, td { padding:.5rem .8rem; text-align:right; border-bottom:1px solid var(--ink-mid); font-size:.85rem; }
    th:first-child, td:first-child { text-align:left; }
    #chart-wrap { background:var(--bg); border:2px solid var(--ink); padding:1rem; }
    button {
      align-self:flex-start;
      font-family:inherit;
      border:2px solid var(--ink);
      background:var(--bg);
      padding:.5rem 1rem;
      cursor:pointer;
    }
    button:active { transform:translate(2px,2px); }
  </style>
</head>
<body>
<div id="app">
  <h1>Cryptofolio</h1>
  <div class="cards">
    <div class="card"><div class="label">Invested</div><div class="value" id="invested">—</div></div>
    <div class="card"><div class="label">Current value</div><div class="value" id="current">—</div></div>
    <div class="card"><div class="label">Unrealized P&amp;L</div><div class="value" id="pnl">—</div></div>
  </div>
  <div id="chart-wrap"><canvas id="chart" height="120"></canvas></div>
  <table>
    <thead><tr><th>Asset</th><th>Quantity</th><th>Price</th><th>Value</th></tr></thead>
    <tbody id="positions"></tbody>
  </table>
  <button id="sync">Sync now</button>
</div>
<script>
const fmt = v => v === null || v === undefined ? '—' : Number(v).toLocaleString(undefined, {maximumFractionDigits: 2});

async function loadOverview() {
  const o = await fetch('/api/portfolio').then(r => r.json());
  document.getElementById('invested').textContent = fmt(o.invested);
  document.getElementById('current').textContent = fmt(o.current_value);
  const pnl = document.getElementById('pnl');
  pnl.textContent = fmt(o.profit_loss);
  pnl.className = 'value ' + (Number(o.profit_loss) >= 0 ? 'up' : 'down');
}

async function loadPositions() {
  const positions = await fetch('/api/positions').then(r => r.json());
  const tbody = document.getElementById('positions');
  tbody.innerHTML = '';
  for (const p of positions || []) {
    const tr = document.createElement('tr');
    tr.innerHTML = '<td>' + p.asset + '</td><td>' + fmt(p.quantity) +
      '</td><td>' + fmt(p.price) + '</td><td>' + fmt(p.value) + '</td>';
    tbody.appendChild(tr);
  }
}

let chart;
async function loadPerformance() {
  const report = await fetch('/api/performance').then(r => r.json());
  const series = report.value_timeseries || [];
  const labels = series.map(p => new Date(p.time).toLocaleDateString());
  const values = series.map(p => Number(p.value));
  if (chart) chart.destroy();
  chart = new Chart(document.getElementById('chart'), {
    type: 'line',
    data: { labels, datasets: [{ data: values, borderColor: '#111', pointRadius: 0, tension: .2 }] },
    options: { plugins: { legend: { display: false } }, scales: { x: { display: false } } }
  });
}

function refresh() { loadOverview(); loadPositions(); loadPerformance(); }

document.getElementById('sync').addEventListener('click', async () => {
  await fetch('/api/sync', { method: 'POST' });
  refresh();
});

const stream = new EventSource('/portfolio/stream');
stream.addEventListener('portfolio', () => refresh());

refresh();
</script>
</body>
</html>
`
