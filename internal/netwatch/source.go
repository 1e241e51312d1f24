package netwatch

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// pi-helper env file keys (written to /run/pi-helper.env by the network
// helper service).
const (
	keyWifiStatus = "NETWORK_WIFI_STATUS"
	keyWifiCode   = "NETWORK_WIFI_CODE"
	keyIP         = "NETWORK_IP"
)

// DefaultStatusFile is where the network helper drops its environment.
const DefaultStatusFile = "/run/pi-helper.env"

// FileSource derives a Status from a KEY=VALUE environment file
// maintained by the network helper. NETWORK_WIFI_CODE, when present,
// is taken verbatim as the platform status (covering raw and negative
// codes); otherwise NETWORK_WIFI_STATUS (a wpa_supplicant wpa_state)
// plus NETWORK_IP are mapped onto the enumeration.
type FileSource struct {
	Path string
}

// NewFileSource creates a FileSource for the given path, defaulting to
// DefaultStatusFile when empty.
func NewFileSource(path string) *FileSource {
	if path == "" {
		path = DefaultStatusFile
	}
	return &FileSource{Path: path}
}

// Status reads and classifies the env file. A missing file means the
// helper has not started: link down.
func (f *FileSource) Status() (Status, error) {
	vars, err := readEnvFile(f.Path)
	if os.IsNotExist(err) {
		return StatusLinkDown, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", f.Path, err)
	}

	if raw, ok := vars[keyWifiCode]; ok {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return 0, fmt.Errorf("parse %s=%q: %w", keyWifiCode, raw, err)
		}
		return Status(n), nil
	}

	return mapWpaState(vars[keyWifiStatus], vars[keyIP] != ""), nil
}

func mapWpaState(state string, haveIP bool) Status {
	switch strings.ToUpper(state) {
	case "COMPLETED":
		if haveIP {
			return StatusConnected
		}
		return StatusNoIP
	case "SCANNING", "AUTHENTICATING", "ASSOCIATING", "ASSOCIATED",
		"4WAY_HANDSHAKE", "GROUP_HANDSHAKE":
		return StatusJoining
	case "DISCONNECTED", "INACTIVE", "INTERFACE_DISABLED", "":
		return StatusLinkDown
	default:
		return StatusLinkDown
	}
}

func readEnvFile(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	vars := make(map[string]string)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		vars[strings.TrimSpace(key)] = strings.Trim(strings.TrimSpace(value), `"`)
	}
	return vars, scanner.Err()
}

// FakeSource returns a scripted status. Safe for concurrent use.
type FakeSource struct {
	mu     sync.Mutex
	status Status
	err    error
}

// NewFakeSource creates a FakeSource reporting the given status.
func NewFakeSource(s Status) *FakeSource {
	return &FakeSource{status: s}
}

// Status returns the configured status or error.
func (f *FakeSource) Status() (Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	return f.status, nil
}

// SetStatus changes the reported status.
func (f *FakeSource) SetStatus(s Status) {
	f.mu.Lock()
	f.status = s
	f.mu.Unlock()
}

// SetError makes Status return the given error.
func (f *FakeSource) SetError(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}
