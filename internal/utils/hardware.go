package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"os"
	"strings"
)

const (
	deviceSalt    = "POS-CHECKOUT-DEVICE"
	unknownDevice = "UNKNOWN-DEVICE"
)

// GetDeviceID hashes the first active hardware address of the machine into
// a short ID like "NINE-A1B2C3D4", sent with every back-office request.
// The hostname is used when no interface has a hardware address.
func GetDeviceID(prefix string) string {
	source := firstHardwareAddr()
	if source == "" {
		if host, err := os.Hostname(); err == nil {
			source = host
		}
	}
	return HashDeviceID(prefix, source)
}

// HashDeviceID turns a hardware address into the display form.
func HashDeviceID(prefix, source string) string {
	if source == "" {
		return unknownDevice
	}
	hash := sha256.Sum256([]byte(source + deviceSalt))
	return prefix + "-" + strings.ToUpper(hex.EncodeToString(hash[:])[:8])
}

func firstHardwareAddr() string {
	interfaces, err := net.Interfaces()
	if err != nil {
		return ""
	}
	for _, i := range interfaces {
		if i.Flags&net.FlagUp != 0 && i.Flags&net.FlagLoopback == 0 && len(i.HardwareAddr) > 0 {
			return i.HardwareAddr.String()
		}
	}
	return ""
}
