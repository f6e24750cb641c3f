// Package platform detects the host environment where it changes how tfdeck
// behaves: WSL clipboard access and file systems that do not deliver
// change notifications.
package platform

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
)

// Platform represents the detected platform
type Platform string

const (
	PlatformMacOS   Platform = "macos"
	PlatformLinux   Platform = "linux"
	PlatformWSL1    Platform = "wsl1"
	PlatformWSL2    Platform = "wsl2"
	PlatformWindows Platform = "windows"
	PlatformUnknown Platform = "unknown"
)

var (
	detectOnce sync.Once
	detected   Platform
)

// Detect returns the current platform, caching the result.
func Detect() Platform {
	detectOnce.Do(func() { detected = detectPlatform() })
	return detected
}

func detectPlatform() Platform {
	switch runtime.GOOS {
	case "darwin":
		return PlatformMacOS
	case "windows":
		return PlatformWindows
	case "linux":
		procVersion, _ := os.ReadFile("/proc/version")
		return classifyLinux(string(procVersion), os.Getenv("WSL_DISTRO_NAME") != "")
	default:
		return PlatformUnknown
	}
}

// classifyLinux tells native Linux from WSL using /proc/version. WSL2
// kernels say "microsoft-standard", WSL1 says "Microsoft".
func classifyLinux(procVersion string, distroSet bool) Platform {
	switch {
	case strings.Contains(procVersion, "microsoft-standard"):
		return PlatformWSL2
	case strings.Contains(procVersion, "Microsoft"):
		return PlatformWSL1
	case strings.Contains(procVersion, "microsoft"), distroSet:
		// /run/WSL exists only in WSL2
		if _, err := os.Stat("/run/WSL"); err == nil {
			return PlatformWSL2
		}
		return PlatformWSL1
	}
	return PlatformLinux
}

// IsWSL returns true if running in any WSL environment
func IsWSL() bool {
	p := Detect()
	return p == PlatformWSL1 || p == PlatformWSL2
}

// String returns a human-readable platform name
func (p Platform) String() string {
	switch p {
	case PlatformMacOS:
		return "macOS"
	case PlatformLinux:
		return "Linux"
	case PlatformWSL1:
		return "WSL1"
	case PlatformWSL2:
		return "WSL2"
	case PlatformWindows:
		return "Windows"
	default:
		return "Unknown"
	}
}

// WatchWarning reports when path lives on a file system whose change
// notifications are missing or unreliable (9p, NFS, SMB, SSHFS), so the
// dashboard can tell the user to refresh by hand. It returns "" otherwise.
func WatchWarning(path string) string {
	if runtime.GOOS != "linux" {
		return ""
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return ""
	}
	mounts, err := os.ReadFile("/proc/mounts")
	if err != nil {
		return ""
	}
	return warningFor(fsTypeFor(string(mounts), absPath))
}

// fsTypeFor returns the file system type of the longest mount point
// containing path. mounts uses the /proc/mounts format.
func fsTypeFor(mounts, path string) string {
	var matchedMount, matchedType string
	for _, line := range strings.Split(mounts, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		mountPoint, fsType := fields[1], fields[2]
		if !underMount(path, mountPoint) {
			continue
		}
		if len(mountPoint) > len(matchedMount) {
			matchedMount, matchedType = mountPoint, fsType
		}
	}
	return matchedType
}

func underMount(path, mountPoint string) bool {
	if mountPoint == "/" || path == mountPoint {
		return true
	}
	return strings.HasPrefix(path, strings.TrimSuffix(mountPoint, "/")+"/")
}

func warningFor(fsType string) string {
	switch {
	case fsType == "9p":
		return "project on a 9p mount (WSL2 Windows drive): file changes are not detected, press r to refresh"
	case fsType == "nfs" || fsType == "nfs4":
		return "project on an NFS mount: file change detection may be unreliable, press r to refresh"
	case fsType == "cifs" || fsType == "smbfs":
		return "project on a CIFS/SMB mount: file change detection may be unreliable, press r to refresh"
	case strings.HasPrefix(fsType, "fuse.sshfs"):
		return "project on an SSHFS mount: file changes are not detected, press r to refresh"
	}
	return ""
}
