package services

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"strings"

	"github.com/sangnt1552314/vidextract/internal/models"
)

// CommandStarter launches an external program without waiting for it.
type CommandStarter func(name string, args ...string) error

// Opener hands URLs to the platform's default handler.
type Opener struct {
	GOOS  string
	Start CommandStarter
}

func NewOpener() *Opener {
	return &Opener{GOOS: runtime.GOOS, Start: startCommand}
}

// OpenSource opens the page the video was found on.
func (o *Opener) OpenSource(video models.Video) error {
	source := strings.TrimSpace(video.Source)
	if source == "" {
		return &ValidationError{Field: "source", Err: ErrNoSource}
	}
	u, err := url.Parse(source)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return &ValidationError{Field: "source", Err: fmt.Errorf("not a web address: %q", source)}
	}
	return o.Open(u.String())
}

// Open launches the default handler for target.
func (o *Opener) Open(target string) error {
	start := o.Start
	if start == nil {
		start = startCommand
	}

	switch o.GOOS {
	case "darwin":
		return start("open", target)
	case "windows":
		return start("rundll32", "url.dll,FileProtocolHandler", target)
	case "linux", "freebsd", "openbsd", "netbsd":
		for _, opener := range []string{"xdg-open", "sensible-browser", "x-www-browser"} {
			if path, err := exec.LookPath(opener); err == nil {
				return start(path, target)
			}
		}
		return fmt.Errorf("no suitable opener found")
	default:
		return fmt.Errorf("unsupported operating system: %s", o.GOOS)
	}
}

func startCommand(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	// Reap the child so it does not linger as a zombie.
	go cmd.Wait()
	return nil
}
