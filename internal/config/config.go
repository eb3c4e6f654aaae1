package config

import (
	"os"
	"strconv"
)

// DumpConfig holds cmd/dvbsi-dump's settings, grounded in the same
// Load()-from-environment shape as the teacher's own internal/config.Config,
// scaled down to this command's much smaller surface: where to read TS
// packets from, how to report what it decodes, and where to persist the
// domain-stack's registry and snapshot state.
type DumpConfig struct {
	// Input is a path to a .ts capture file, or "udp://host:port" for a live
	// multicast/unicast feed. Required.
	Input string

	// PID is the 13-bit PID to extract sections from.
	PID uint16

	// OutputMode is "text" (dump decoded sections in the textual format) or
	// "binary" (write raw section bytes to stdout).
	OutputMode string

	// DebugLevel (0..5) gates the extractor/packetizer's internal/diag trace
	// output.
	DebugLevel int

	// RegistryPath is the sqlite database path for internal/registry. Empty
	// disables the registry.
	RegistryPath string

	// SnapshotPath is the brotli-compressed capture archive path for
	// internal/snapshot. Empty disables snapshotting.
	SnapshotPath string

	// MetricsAddr is the listen address for the /metrics and /healthz HTTP
	// handles. Empty disables the server.
	MetricsAddr string
}

// Load reads a DumpConfig from environment variables, following the
// teacher's getEnv/getEnvInt helper pattern (internal/config/config.go). It
// first loads ".env" into the process environment if present, the same way
// internal/supervisor seeds its own environment before reading it.
func Load() *DumpConfig {
	_ = LoadEnvFile(".env")
	return &DumpConfig{
		Input:        os.Getenv("DVBSI_INPUT"),
		PID:          getEnvUint16("DVBSI_PID", 0x10),
		OutputMode:   getEnv("DVBSI_OUTPUT", "text"),
		DebugLevel:   getEnvInt("DVBSI_DEBUG_LEVEL", 0),
		RegistryPath: os.Getenv("DVBSI_REGISTRY_DB"),
		SnapshotPath: os.Getenv("DVBSI_SNAPSHOT_FILE"),
		MetricsAddr:  getEnv("DVBSI_METRICS_ADDR", ":9090"),
	}
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvUint16(key string, defaultVal uint16) uint16 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.ParseUint(v, 0, 16)
	if err != nil {
		return defaultVal
	}
	return uint16(n)
}
