package device

import (
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// ServerPort is the fixed port the UIAutomator2 server listens on inside the
// device.
const ServerPort = 6790

// AndroidDevice is one ADB-attached device, addressed by serial.
type AndroidDevice struct {
	Serial  string
	adbPath string
}

// New returns a handle for the device with the given serial.
func New(serial string) (*AndroidDevice, error) {
	adbPath, err := findADB()
	if err != nil {
		return nil, err
	}
	return &AndroidDevice{Serial: serial, adbPath: adbPath}, nil
}

// Shell runs a shell command on the device and returns its combined output.
func (d *AndroidDevice) Shell(args ...string) (string, error) {
	cmdArgs := append([]string{"-s", d.Serial, "shell"}, args...)
	out, err := exec.Command(d.adbPath, cmdArgs...).CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("adb shell %v: %w: %s", args, err, strings.TrimSpace(string(out)))
	}
	return string(out), nil
}

// Forward maps a host TCP port to the on-device UIAutomator2 server port.
func (d *AndroidDevice) Forward(localPort int) error {
	out, err := exec.Command(d.adbPath, "-s", d.Serial, "forward",
		fmt.Sprintf("tcp:%d", localPort), fmt.Sprintf("tcp:%d", ServerPort)).CombinedOutput()
	if err != nil {
		return fmt.Errorf("adb forward: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// FreePort returns an unused local TCP port suitable for forwarding to the
// device server.
func FreePort() (int, error) {
	return findFreePort(6790, 7790)
}

// findFreePort scans the range for a port nothing is listening on.
func findFreePort(start, end int) (int, error) {
	for port := start; port <= end; port++ {
		l, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
		if err != nil {
			continue
		}
		l.Close()
		return port, nil
	}
	return 0, fmt.Errorf("no free port in range %d-%d", start, end)
}

// findADB locates the adb binary via PATH, then the SDK platform-tools.
func findADB() (string, error) {
	if p, err := exec.LookPath(adbBinary()); err == nil {
		return p, nil
	}
	for _, env := range []string{"ANDROID_HOME", "ANDROID_SDK_ROOT"} {
		if home := os.Getenv(env); home != "" {
			p := filepath.Join(home, "platform-tools", adbBinary())
			if _, err := os.Stat(p); err == nil {
				return p, nil
			}
		}
	}
	return "", fmt.Errorf("adb not found in PATH, ANDROID_HOME or ANDROID_SDK_ROOT")
}

func adbBinary() string {
	if runtime.GOOS == "windows" {
		return "adb.exe"
	}
	return "adb"
}
