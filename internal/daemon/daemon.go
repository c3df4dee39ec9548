// Package daemon locates the Unix-domain socket and PID file a pgls
// background server listens on for a given project directory, so `start`,
// `stop`, `run-server`, `lsp-proxy` and `print-socket` all agree on the
// same paths without any of them persisting state of their own.
package daemon

import (
	"crypto/sha1"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// namespace seeds the UUIDv5 derivation below; any fixed UUID works, this
// one has no meaning beyond being pgls's own.
var namespace = uuid.MustParse("a8098c1a-f86e-11da-bd1a-00112444be1e")

// runtimeDir is where sockets and PID files live, honoring XDG_RUNTIME_DIR
// when set and falling back to the system temp directory otherwise.
func runtimeDir() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return dir
	}
	return os.TempDir()
}

// ID derives a stable identifier for projectDir: the same absolute project
// directory always yields the same ID, so repeated `start`/`stop`/
// `print-socket` calls against one project agree without pgls needing to
// persist anything beyond the socket and PID files.
func ID(projectDir string) string {
	abs, err := filepath.Abs(projectDir)
	if err != nil {
		abs = projectDir
	}
	return uuid.NewSHA1(namespace, []byte(abs)).String()
}

// SocketPath returns the Unix-domain socket path run-server listens on and
// lsp-proxy connects to for projectDir.
func SocketPath(projectDir string) string {
	return filepath.Join(runtimeDir(), fmt.Sprintf("pgls-%s.sock", ID(projectDir)))
}

// PIDPath returns the file start/stop use to track the background
// run-server process for projectDir.
func PIDPath(projectDir string) string {
	return filepath.Join(runtimeDir(), fmt.Sprintf("pgls-%s.pid", ID(projectDir)))
}

// shortID is a human-friendly, collision-resistant fragment of ID(dir) for
// log lines, derived independently of uuid's string form so it stays short.
func shortID(projectDir string) string {
	sum := sha1.Sum([]byte(ID(projectDir)))
	return fmt.Sprintf("%x", sum[:4])
}

// ReadPID returns the PID recorded at PIDPath(projectDir), or 0 if no
// daemon is recorded as running.
func ReadPID(projectDir string) (int, error) {
	data, err := os.ReadFile(PIDPath(projectDir))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	var pid int
	if _, err := fmt.Sscanf(string(data), "%d", &pid); err != nil {
		return 0, fmt.Errorf("daemon: malformed pid file: %w", err)
	}
	return pid, nil
}

// WritePID records pid as the running daemon for projectDir.
func WritePID(projectDir string, pid int) error {
	return os.WriteFile(PIDPath(projectDir), fmt.Appendf(nil, "%d", pid), 0o600)
}

// RemovePID clears the PID file for projectDir, ignoring a not-exist error.
func RemovePID(projectDir string) error {
	err := os.Remove(PIDPath(projectDir))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
