package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/aclamk-go/dvbsi/internal/codec"
	"github.com/aclamk-go/dvbsi/internal/config"
	"github.com/aclamk-go/dvbsi/internal/dvb/descriptors"
	"github.com/aclamk-go/dvbsi/internal/dvb/nit"
	"github.com/aclamk-go/dvbsi/internal/registry"
	"github.com/aclamk-go/dvbsi/internal/snapshot"
	"github.com/aclamk-go/dvbsi/internal/tspacket"
)

func sampleNITBytes(t *testing.T) []byte {
	t.Helper()
	n := &nit.NetworkInformationSection{
		TableID:                0x40,
		SectionSyntaxIndicator: 1,
		NetworkID:              0xabcd,
		VersionNumber:          1,
		CurrentNextIndicator:   1,
		TSLoop: []nit.TSSpecification{
			{
				TransportStreamID: 0x1001,
				OriginalNetworkID: 0x2002,
				TransportDescriptors: []descriptors.Descriptor{
					&descriptors.ServiceListDescriptor{
						Services: []descriptors.ServiceListEntry{
							{ServiceID: 0x10, ServiceType: 1},
							{ServiceID: 0x11, ServiceType: 2},
						},
					},
				},
			},
		},
	}
	buf := make([]byte, 512)
	cc := codec.ConstructBinary(buf)
	if err := n.IO(cc); err != nil {
		t.Fatal(err)
	}
	return cc.Bytes()
}

// writeCaptureFile packetizes section on pid into a .ts file at path.
func writeCaptureFile(t *testing.T, path string, pid uint16, section []byte) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	p := tspacket.NewPacketizer(pid, 0)
	p.OnTSPacketProduced(func(packet []byte) {
		if _, err := f.Write(packet); err != nil {
			t.Fatal(err)
		}
	})
	p.Section(section)
	p.Flush()
}

func TestRun_decodesNITAndUpsertsRegistry(t *testing.T) {
	dir := t.TempDir()
	capturePath := filepath.Join(dir, "capture.ts")
	writeCaptureFile(t, capturePath, 0x10, sampleNITBytes(t))

	registryPath := filepath.Join(dir, "registry.db")
	snapshotPath := filepath.Join(dir, "snapshot.br")

	var out bytes.Buffer
	outFile, err := os.CreateTemp(dir, "out-*.txt")
	if err != nil {
		t.Fatal(err)
	}

	cfg := &config.DumpConfig{
		Input:        capturePath,
		PID:          0x10,
		OutputMode:   "text",
		RegistryPath: registryPath,
		SnapshotPath: snapshotPath,
	}
	if err := run(cfg, outFile); err != nil {
		t.Fatal(err)
	}
	outFile.Close()

	written, err := os.ReadFile(outFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	out.Write(written)
	if !bytes.Contains(out.Bytes(), []byte("network_id: 43981")) {
		t.Fatalf("expected text dump to contain network_id, got:\n%s", out.String())
	}

	reg, err := registry.Open(registryPath)
	if err != nil {
		t.Fatal(err)
	}
	defer reg.Close()
	entry, found, err := reg.LookupTriplet(0x2002, 0x1001, 0x10)
	if err != nil {
		t.Fatal(err)
	}
	if !found {
		t.Fatal("expected registry entry for service 0x10")
	}
	_ = entry

	snapFile, err := os.Open(snapshotPath)
	if err != nil {
		t.Fatal(err)
	}
	defer snapFile.Close()
	r := snapshot.NewReader(snapFile)
	pid, data, err := r.ReadSection()
	if err != nil {
		t.Fatal(err)
	}
	if pid != 0x10 || len(data) == 0 {
		t.Fatalf("got pid=%d len=%d", pid, len(data))
	}
}
