package securestore

import (
	"encoding/hex"
	"os"
	"os/user"
	"strings"

	"github.com/zeebo/blake3"
)

var machineIDPaths = []string{"/etc/machine-id", "/var/lib/dbus/machine-id"}

// DeviceFingerprint returns a stable BLAKE3 digest of host identity
// (hostname, machine id, OS user). It is the default passphrase of the file
// store, which keeps the store readable only on the device that wrote it.
func DeviceFingerprint() string {
	var parts []string

	if host, err := os.Hostname(); err == nil {
		parts = append(parts, host)
	}
	for _, p := range machineIDPaths {
		if data, err := os.ReadFile(p); err == nil {
			parts = append(parts, strings.TrimSpace(string(data)))
			break
		}
	}
	if u, err := user.Current(); err == nil {
		parts = append(parts, u.Uid, u.Username)
	}

	sum := blake3.Sum256([]byte("progate-device\x00" + strings.Join(parts, "\x00")))
	return hex.EncodeToString(sum[:])
}

// DeviceID is a short form of DeviceFingerprint used to namespace shared backends.
func DeviceID() string {
	return DeviceFingerprint()[:16]
}
