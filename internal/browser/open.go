// Package browser opens URLs in the user's default browser, used by the
// SSO login flow.
package browser

import (
	"fmt"
	"os/exec"
	"runtime"
)

// Open launches the default browser at url.
func Open(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "linux":
		return exec.Command("xdg-open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return fmt.Errorf("unsupported OS: %s", runtime.GOOS)
	}
}
