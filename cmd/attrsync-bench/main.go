// Command attrsync-bench load-tests the live reconciliation server.
//
// It starts an in-process server, connects N WebSocket clients and has each
// send desired-state messages at a fixed rate, measuring the round trip to
// the answering patches frame.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net"
	"net/http"
	"os"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/vango-dev/attrsync/internal/errors"
	"github.com/vango-dev/attrsync/pkg/live"
	"github.com/vango-dev/attrsync/pkg/protocol"
	"github.com/vango-dev/attrsync/pkg/reconcile"
)

type profile struct {
	Name         string
	Clients      int
	Duration     time.Duration
	RPS          float64
	Elements     int
	PayloadBytes int
	MaxProcs     int
}

var profiles = map[string]profile{
	"fast": {
		Name:         "fast",
		Clients:      50,
		Duration:     10 * time.Second,
		RPS:          2,
		Elements:     4,
		PayloadBytes: 24,
	},
	"standard": {
		Name:         "standard",
		Clients:      200,
		Duration:     30 * time.Second,
		RPS:          5,
		Elements:     16,
		PayloadBytes: 24,
	},
	"stress": {
		Name:         "stress",
		Clients:      500,
		Duration:     60 * time.Second,
		RPS:          10,
		Elements:     64,
		PayloadBytes: 24,
		MaxProcs:     4,
	},
}

type benchConfig struct {
	Profile        string
	Clients        int
	Duration       time.Duration
	RPS            float64
	Elements       int
	PayloadBytes   int
	MaxProcs       int
	JSONOutput     string
	MessageTimeout time.Duration
}

type benchCounters struct {
	messagesSent     atomic.Uint64
	messagesComplete atomic.Uint64
	messageBytes     atomic.Uint64
	patchBytes       atomic.Uint64
	patchesTotal     atomic.Uint64
}

type benchErrors struct {
	dialFailures        atomic.Uint64
	writeFailures       atomic.Uint64
	readFailures        atomic.Uint64
	frameDecodeFailures atomic.Uint64
	serverErrorFrames   atomic.Uint64
	valueMissing        atomic.Uint64
}

type patchOpCounts struct {
	counts [256]atomic.Uint64
}

func (p *patchOpCounts) add(op protocol.PatchOp) {
	p.counts[uint8(op)].Add(1)
}

func (p *patchOpCounts) snapshot() map[string]uint64 {
	out := make(map[string]uint64)
	for i := range p.counts {
		count := p.counts[i].Load()
		if count == 0 {
			continue
		}
		name := protocol.PatchOp(uint8(i)).String()
		if name == "Unknown" {
			name = fmt.Sprintf("0x%02x", i)
		}
		out[name] = count
	}
	return out
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		errors.Fprint(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		profileName string
		overrides   benchConfig
	)

	cmd := &cobra.Command{
		Use:   "attrsync-bench",
		Short: "Load-test the live reconciliation server",
		Long: `Start an in-process live server and drive it with concurrent
WebSocket clients. Each client owns a few input elements and sends
desired-state messages at a fixed rate; the round trip is measured from
the write to the patches frame that answers it.

Profiles: fast, standard, stress. Flags override profile values.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(profileName, overrides, cmd.Flags().Changed)
			if err != nil {
				return err
			}
			report, err := run(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			writeSummary(cmd.ErrOrStderr(), report)
			return writeJSON(cmd.OutOrStdout(), cfg.JSONOutput, report)
		},
	}

	f := cmd.Flags()
	f.StringVar(&profileName, "profile", "standard", "profile: fast|standard|stress")
	f.IntVar(&overrides.Clients, "clients", 0, "number of concurrent websocket clients")
	f.DurationVar(&overrides.Duration, "duration", 0, "benchmark duration, e.g. 30s")
	f.Float64Var(&overrides.RPS, "rps", 0, "target messages/sec per client")
	f.IntVar(&overrides.Elements, "elements", 0, "elements per client")
	f.IntVar(&overrides.PayloadBytes, "payload-bytes", 0, "bytes of value payload per message")
	f.IntVar(&overrides.MaxProcs, "max-procs", 0, "GOMAXPROCS cap (0 to leave unchanged)")
	f.StringVar(&overrides.JSONOutput, "json", "-", "JSON output path ('-' for stdout)")

	return cmd
}

// resolveConfig starts from the named profile and applies the flags the
// user set.
func resolveConfig(name string, o benchConfig, changed func(string) bool) (benchConfig, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	base, ok := profiles[name]
	if !ok {
		return benchConfig{}, errors.New("E103").WithDetailf("unknown profile %q", name)
	}

	cfg := benchConfig{
		Profile:      base.Name,
		Clients:      base.Clients,
		Duration:     base.Duration,
		RPS:          base.RPS,
		Elements:     base.Elements,
		PayloadBytes: base.PayloadBytes,
		MaxProcs:     base.MaxProcs,
		JSONOutput:   strings.TrimSpace(o.JSONOutput),
	}
	if changed("clients") {
		cfg.Clients = o.Clients
	}
	if changed("duration") {
		cfg.Duration = o.Duration
	}
	if changed("rps") {
		cfg.RPS = o.RPS
	}
	if changed("elements") {
		cfg.Elements = o.Elements
	}
	if changed("payload-bytes") {
		cfg.PayloadBytes = o.PayloadBytes
	}
	if changed("max-procs") {
		cfg.MaxProcs = o.MaxProcs
	}
	if cfg.JSONOutput == "" {
		cfg.JSONOutput = "-"
	}

	switch {
	case cfg.Clients <= 0:
		return benchConfig{}, errors.New("E103").WithDetail("--clients must be > 0")
	case cfg.Duration <= 0:
		return benchConfig{}, errors.New("E103").WithDetail("--duration must be > 0")
	case cfg.RPS <= 0:
		return benchConfig{}, errors.New("E103").WithDetail("--rps must be > 0")
	case cfg.Elements <= 0:
		return benchConfig{}, errors.New("E103").WithDetail("--elements must be > 0")
	case cfg.PayloadBytes <= 0:
		return benchConfig{}, errors.New("E103").WithDetail("--payload-bytes must be > 0")
	case cfg.MaxProcs < 0:
		return benchConfig{}, errors.New("E103").WithDetail("--max-procs must be >= 0")
	}

	cfg.MessageTimeout = messageTimeout(cfg.RPS)
	return cfg, nil
}

func messageTimeout(rps float64) time.Duration {
	period := time.Duration(float64(time.Second) / rps)
	timeout := period * 10
	if timeout < 2*time.Second {
		timeout = 2 * time.Second
	}
	return timeout
}

func run(parent context.Context, cfg benchConfig) (benchReport, error) {
	if parent == nil {
		parent = context.Background()
	}
	if cfg.MaxProcs > 0 {
		runtime.GOMAXPROCS(cfg.MaxProcs)
	}

	reg := prometheus.NewRegistry()
	srv := live.New(&live.Config{
		Gatherer:   reg,
		Metrics:    live.NewMetrics(reconcile.WithRegistry(reg)),
		Reconciler: []reconcile.Option{reconcile.WithMetrics(reconcile.NewMetrics(reconcile.WithRegistry(reg)))},
	})
	srv.SetLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		return benchReport{}, errors.New("E130").WithDetail(err.Error()).Wrap(err)
	}
	httpServer := &http.Server{Handler: srv}
	go httpServer.Serve(ln)
	defer httpServer.Shutdown(context.Background())

	wsURL := "ws://" + ln.Addr().String() + "/ws"

	ctx, cancel := context.WithTimeout(parent, cfg.Duration)
	defer cancel()

	var (
		counters  benchCounters
		errCounts benchErrors
		patchOps  patchOpCounts
		samplesMu sync.Mutex
		samples   []time.Duration
	)

	var before runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)

	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(cfg.Clients)
	for i := 0; i < cfg.Clients; i++ {
		go func(clientID int) {
			defer wg.Done()
			local := runClient(ctx, wsURL, clientID, cfg, &counters, &errCounts, &patchOps)
			samplesMu.Lock()
			samples = append(samples, local...)
			samplesMu.Unlock()
		}(i)
	}
	wg.Wait()
	elapsed := time.Since(start)

	var after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&after)

	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return buildReport(cfg, elapsed, samples, &counters, &errCounts, &patchOps, before, after), nil
}

// runClient drives one connection until ctx ends or the connection fails
// and returns its round-trip samples.
func runClient(
	ctx context.Context,
	wsURL string,
	clientID int,
	cfg benchConfig,
	counters *benchCounters,
	errCounts *benchErrors,
	patchOps *patchOpCounts,
) []time.Duration {
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		errCounts.dialFailures.Add(1)
		return nil
	}
	defer conn.Close()

	period := time.Duration(float64(time.Second) / cfg.RPS)
	var samples []time.Duration
	var seq uint64
	for ctx.Err() == nil {
		seq++
		token := makeToken(clientID, seq, cfg.PayloadBytes)
		msg := desiredMessage(seq, cfg.Elements, token)

		start := time.Now()
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			errCounts.writeFailures.Add(1)
			return samples
		}
		counters.messagesSent.Add(1)
		counters.messageBytes.Add(uint64(len(msg)))

		conn.SetReadDeadline(time.Now().Add(cfg.MessageTimeout))
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				errCounts.readFailures.Add(1)
			}
			return samples
		}
		if !checkReply(data, token, counters, errCounts, patchOps) {
			return samples
		}
		samples = append(samples, time.Since(start))
		counters.messagesComplete.Add(1)

		if sleep := period - time.Since(start); sleep > 0 {
			timer := time.NewTimer(sleep)
			select {
			case <-ctx.Done():
				timer.Stop()
			case <-timer.C:
			}
		}
	}
	return samples
}

// desiredMessage rotates across the client's elements. Each message sets
// a fresh value, so every reply carries a SetValue.
func desiredMessage(seq uint64, elements int, token string) []byte {
	msg := live.Desired{
		HID: "e" + strconv.FormatUint(seq%uint64(elements), 10),
		Tag: "input",
		Attrs: reconcile.Attrs{
			"value":    token,
			"class":    "row tone-" + strconv.FormatUint(seq%3, 10),
			"data-seq": strconv.FormatUint(seq, 10),
		},
	}
	data, _ := json.Marshal(msg)
	return data
}

// checkReply decodes the answering frame and reports whether it carried
// the value just sent.
func checkReply(data []byte, token string, counters *benchCounters, errCounts *benchErrors, patchOps *patchOpCounts) bool {
	frame, err := protocol.DecodeFrame(data)
	if err != nil {
		errCounts.frameDecodeFailures.Add(1)
		return false
	}
	if frame.Type == protocol.FrameError {
		errCounts.serverErrorFrames.Add(1)
		return false
	}
	pf, err := protocol.DecodePatches(frame.Payload)
	if err != nil {
		errCounts.frameDecodeFailures.Add(1)
		return false
	}
	counters.patchBytes.Add(uint64(len(data)))

	found := false
	for _, p := range pf.Patches {
		patchOps.add(p.Op)
		counters.patchesTotal.Add(1)
		if p.Op == protocol.PatchSetValue && p.Value == token {
			found = true
		}
	}
	if !found {
		errCounts.valueMissing.Add(1)
	}
	return found
}

func makeToken(clientID int, seq uint64, payloadBytes int) string {
	seed := (uint64(clientID) << 32) ^ seq
	base := strconv.FormatUint(seed, 36)
	if len(base) >= payloadBytes {
		return base[len(base)-payloadBytes:]
	}
	return base + strings.Repeat("x", payloadBytes-len(base))
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[len(sorted)-1]
	}
	idx := int(math.Ceil(float64(len(sorted))*p)) - 1
	if idx < 0 {
		idx = 0
	}
	return sorted[idx]
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

type benchReport struct {
	Version    string         `json:"version"`
	Run        runInfo        `json:"run"`
	Workload   workloadInfo   `json:"workload"`
	LatencyMS  latencyInfo    `json:"latency_ms"`
	Throughput throughputInfo `json:"throughput"`
	GC         gcInfo         `json:"gc"`
	Protocol   protocolInfo   `json:"protocol"`
	Errors     errorInfo      `json:"errors"`
}

type runInfo struct {
	Timestamp string `json:"timestamp"`
	Go        string `json:"go"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
	CPUCount  int    `json:"cpu_count"`
}

type workloadInfo struct {
	Profile          string  `json:"profile"`
	Clients          int     `json:"clients"`
	DurationMS       int64   `json:"duration_ms"`
	RPSPerClient     float64 `json:"rps_per_client"`
	Elements         int     `json:"elements_per_client"`
	PayloadBytes     int     `json:"payload_bytes"`
	MaxProcs         int     `json:"max_procs"`
	MessageTimeoutMS int64   `json:"message_timeout_ms"`
}

type latencyInfo struct {
	Min float64 `json:"min"`
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
	Max float64 `json:"max"`
}

type throughputInfo struct {
	MessagesTotal  uint64  `json:"messages_total"`
	MessagesPerSec float64 `json:"messages_per_sec"`
}

type gcInfo struct {
	AllocMB      float64 `json:"alloc_mb"`
	HeapLiveMB   float64 `json:"heap_live_mb"`
	NumGC        uint32  `json:"num_gc"`
	PauseTotalMS float64 `json:"pause_total_ms"`
}

type protocolInfo struct {
	MessageBytesTotal uint64            `json:"message_bytes_total"`
	PatchBytesTotal   uint64            `json:"patch_bytes_total"`
	PatchesTotal      uint64            `json:"patches_total"`
	PatchesPerMessage float64           `json:"patches_per_message"`
	PatchOps          map[string]uint64 `json:"patch_ops"`
}

type errorInfo struct {
	DialFailures        uint64 `json:"dial_failures"`
	WriteFailures       uint64 `json:"write_failures"`
	ReadFailures        uint64 `json:"read_failures"`
	FrameDecodeFailures uint64 `json:"frame_decode_failures"`
	ServerErrorFrames   uint64 `json:"server_error_frames"`
	ValueMissing        uint64 `json:"value_missing"`
}

func buildReport(
	cfg benchConfig,
	elapsed time.Duration,
	latencies []time.Duration,
	counters *benchCounters,
	errCounts *benchErrors,
	patchOps *patchOpCounts,
	before runtime.MemStats,
	after runtime.MemStats,
) benchReport {
	complete := counters.messagesComplete.Load()
	patches := counters.patchesTotal.Load()

	latency := latencyInfo{}
	if len(latencies) > 0 {
		latency = latencyInfo{
			Min: ms(latencies[0]),
			P50: ms(percentile(latencies, 0.50)),
			P95: ms(percentile(latencies, 0.95)),
			P99: ms(percentile(latencies, 0.99)),
			Max: ms(latencies[len(latencies)-1]),
		}
	}

	perMessage := 0.0
	if complete > 0 {
		perMessage = float64(patches) / float64(complete)
	}

	return benchReport{
		Version: "1",
		Run: runInfo{
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
			Go:        runtime.Version(),
			OS:        runtime.GOOS,
			Arch:      runtime.GOARCH,
			CPUCount:  runtime.NumCPU(),
		},
		Workload: workloadInfo{
			Profile:          cfg.Profile,
			Clients:          cfg.Clients,
			DurationMS:       cfg.Duration.Milliseconds(),
			RPSPerClient:     cfg.RPS,
			Elements:         cfg.Elements,
			PayloadBytes:     cfg.PayloadBytes,
			MaxProcs:         cfg.MaxProcs,
			MessageTimeoutMS: cfg.MessageTimeout.Milliseconds(),
		},
		LatencyMS: latency,
		Throughput: throughputInfo{
			MessagesTotal:  complete,
			MessagesPerSec: float64(complete) / math.Max(0.001, elapsed.Seconds()),
		},
		GC: gcInfo{
			AllocMB:      float64(after.TotalAlloc-before.TotalAlloc) / (1024 * 1024),
			HeapLiveMB:   float64(after.HeapAlloc) / (1024 * 1024),
			NumGC:        after.NumGC - before.NumGC,
			PauseTotalMS: ms(time.Duration(after.PauseTotalNs - before.PauseTotalNs)),
		},
		Protocol: protocolInfo{
			MessageBytesTotal: counters.messageBytes.Load(),
			PatchBytesTotal:   counters.patchBytes.Load(),
			PatchesTotal:      patches,
			PatchesPerMessage: perMessage,
			PatchOps:          patchOps.snapshot(),
		},
		Errors: errorInfo{
			DialFailures:        errCounts.dialFailures.Load(),
			WriteFailures:       errCounts.writeFailures.Load(),
			ReadFailures:        errCounts.readFailures.Load(),
			FrameDecodeFailures: errCounts.frameDecodeFailures.Load(),
			ServerErrorFrames:   errCounts.serverErrorFrames.Load(),
			ValueMissing:        errCounts.valueMissing.Load(),
		},
	}
}

func writeSummary(w io.Writer, r benchReport) {
	fmt.Fprintf(w, "profile=%s clients=%d duration=%dms rps/client=%.1f\n",
		r.Workload.Profile, r.Workload.Clients, r.Workload.DurationMS, r.Workload.RPSPerClient)
	fmt.Fprintf(w, "messages=%d (%.1f/s) patches/message=%.2f\n",
		r.Throughput.MessagesTotal, r.Throughput.MessagesPerSec, r.Protocol.PatchesPerMessage)
	fmt.Fprintf(w, "latency ms: min=%.2f p50=%.2f p95=%.2f p99=%.2f max=%.2f\n",
		r.LatencyMS.Min, r.LatencyMS.P50, r.LatencyMS.P95, r.LatencyMS.P99, r.LatencyMS.Max)
	fmt.Fprintf(w, "gc: alloc=%.1fMB heap=%.1fMB num=%d pause=%.2fms\n",
		r.GC.AllocMB, r.GC.HeapLiveMB, r.GC.NumGC, r.GC.PauseTotalMS)
	e := r.Errors
	if total := e.DialFailures + e.WriteFailures + e.ReadFailures + e.FrameDecodeFailures + e.ServerErrorFrames + e.ValueMissing; total > 0 {
		fmt.Fprintf(w, "errors: %d (%+v)\n", total, e)
	}
}

func writeJSON(stdout io.Writer, path string, r benchReport) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if path == "-" {
		_, err := stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0644)
}
