// Command dvbsi-dump drives the PSI extractor from a .ts capture file or a
// live UDP/multicast feed, decodes recognized sections (currently NIT), and
// writes them out in text or binary form, in the same startup/shutdown
// shape as the teacher's cmd/plex-tuner: flag-parsed options, an HTTP mux
// served on its own goroutine, and a signal-triggered graceful exit.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aclamk-go/dvbsi/internal/codec"
	"github.com/aclamk-go/dvbsi/internal/config"
	"github.com/aclamk-go/dvbsi/internal/dvb/descriptors"
	"github.com/aclamk-go/dvbsi/internal/dvb/nit"
	"github.com/aclamk-go/dvbsi/internal/metrics"
	"github.com/aclamk-go/dvbsi/internal/psi"
	"github.com/aclamk-go/dvbsi/internal/registry"
	"github.com/aclamk-go/dvbsi/internal/snapshot"
)

func main() {
	cfg := config.Load()

	input := flag.String("input", cfg.Input, "path to a .ts capture file, or udp://host:port for a live feed")
	pid := flag.Uint("pid", uint(cfg.PID), "13-bit PID to extract sections from")
	output := flag.String("output", cfg.OutputMode, "text or binary")
	debugLevel := flag.Int("debug-level", cfg.DebugLevel, "extractor/packetizer trace verbosity, 0..5")
	registryPath := flag.String("registry", cfg.RegistryPath, "sqlite registry database path (empty disables)")
	snapshotPath := flag.String("snapshot", cfg.SnapshotPath, "brotli capture archive path (empty disables)")
	metricsAddr := flag.String("metrics-addr", cfg.MetricsAddr, "listen address for /metrics and /healthz (empty disables)")
	flag.Parse()

	cfg.Input = *input
	cfg.PID = uint16(*pid)
	cfg.OutputMode = *output
	cfg.DebugLevel = *debugLevel
	cfg.RegistryPath = *registryPath
	cfg.SnapshotPath = *snapshotPath
	cfg.MetricsAddr = *metricsAddr

	if cfg.Input == "" {
		log.Fatal("dvbsi-dump: -input is required")
	}

	if err := run(cfg, os.Stdout); err != nil {
		log.Fatalf("dvbsi-dump: %v", err)
	}
}

func run(cfg *config.DumpConfig, out *os.File) error {
	reg := prometheus.NewRegistry()
	met := metrics.MustRegister(reg)

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			fmt.Fprintln(w, "ok")
		})
		log.Printf("dvbsi-dump: serving /metrics and /healthz on %s", cfg.MetricsAddr)
		go func() {
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				log.Printf("dvbsi-dump: http: %v", err)
			}
		}()
	}

	var reg2 *registry.Registry
	if cfg.RegistryPath != "" {
		r, err := registry.Open(cfg.RegistryPath)
		if err != nil {
			return err
		}
		defer r.Close()
		reg2 = r
	}

	var snap *snapshot.Writer
	if cfg.SnapshotPath != "" {
		f, err := os.Create(cfg.SnapshotPath)
		if err != nil {
			return fmt.Errorf("create snapshot file: %w", err)
		}
		defer f.Close()
		snap = snapshot.NewWriter(f)
		defer snap.Close()
	}

	src, err := openSource(cfg.Input)
	if err != nil {
		return err
	}
	defer src.Close()

	ext := psi.NewExtractor(4096, cfg.DebugLevel)
	ext.OnSectionReady(func(data []byte) {
		met.SectionsTotal.Inc()
		if snap != nil {
			if err := snap.WriteSection(cfg.PID, data); err != nil {
				log.Printf("dvbsi-dump: snapshot write: %v", err)
			}
		}
		decodeSection(data, cfg.OutputMode, out, met, reg2)
	})

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan error, 1)
	go func() {
		done <- pump(src, ext)
	}()

	select {
	case err := <-done:
		return err
	case <-sig:
		log.Print("dvbsi-dump: shutting down")
		return nil
	}
}

// pump reads packets from src and feeds them to ext until the source is
// exhausted.
func pump(src packetSource, ext *psi.Extractor) error {
	var buf [tsPacketLen]byte
	for {
		if err := src.ReadPacket(buf[:]); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		ext.TSPacket(buf[:])
	}
}

// decodeSection recognizes a NIT by table_id and dumps it (text or binary
// per mode). Any other section is written as raw bytes in binary mode and
// skipped in text mode.
func decodeSection(data []byte, mode string, out *os.File, met *metrics.Metrics, reg *registry.Registry) {
	tableID := data[0]
	if tableID != 0x40 && tableID != 0x41 {
		if mode == "binary" {
			out.Write(data)
		}
		return
	}

	n := &nit.NetworkInformationSection{}
	pc := codec.ParseBinary(data)
	if err := n.IO(pc); err != nil {
		met.CodecFaults.WithLabelValues(faultKind(err)).Inc()
		log.Printf("dvbsi-dump: decode NIT: %v", err)
		return
	}

	if reg != nil {
		now := time.Now()
		for _, ts := range n.TSLoop {
			serviceIDs := serviceIDsOf(ts.TransportDescriptors)
			if len(serviceIDs) == 0 {
				continue
			}
			if err := reg.UpsertFromNIT(uint16(ts.OriginalNetworkID), uint16(ts.TransportStreamID), serviceIDs, "", now); err != nil {
				log.Printf("dvbsi-dump: registry upsert: %v", err)
				continue
			}
			met.RegistryUpserts.Add(float64(len(serviceIDs)))
		}
	}

	switch mode {
	case "binary":
		out.Write(data)
	default:
		tc := codec.ConstructText()
		if err := n.IO(tc); err != nil {
			log.Printf("dvbsi-dump: text-dump NIT: %v", err)
			return
		}
		fmt.Fprint(out, tc.Text())
	}
}

func serviceIDsOf(descs []descriptors.Descriptor) []uint16 {
	var ids []uint16
	for _, d := range descs {
		sl, ok := d.(*descriptors.ServiceListDescriptor)
		if !ok {
			continue
		}
		for _, e := range sl.Services {
			ids = append(ids, uint16(e.ServiceID))
		}
	}
	return ids
}

func faultKind(err error) string {
	if ce, ok := err.(*codec.Error); ok {
		return ce.Kind.String()
	}
	return "UNKNOWN"
}
