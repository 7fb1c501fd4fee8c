// Package display shows a rendered chart in a desktop window.
package display

import (
	"errors"
	"image"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	fyne "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/dialog"

	"github.com/iafilius/AdaptivePolling/src/logging"
	"github.com/iafilius/AdaptivePolling/src/plot"
)

// AppID identifies the viewer to fyne's preferences store.
const AppID = "com.adaptivepolling.viewer"

// Largest initial window; bigger charts are scaled down to fit.
const (
	maxWindowWidth  = 1200
	maxWindowHeight = 760
)

// Viewer describes what to show.
type Viewer struct {
	Title string
	// FileName is the default name offered by File > Save As.
	FileName string
	// DPI is recorded in exported PNGs.
	DPI float64
}

// Available reports whether a graphical display can be opened. On X11 and Wayland the
// display socket must accept a connection; a DISPLAY left over from a closed ssh session
// does not count.
func Available() bool { return available(runtime.GOOS, os.Getenv, dialDisplay) }

// displayDialTimeout bounds the display socket check.
const displayDialTimeout = 500 * time.Millisecond

type dialFunc func(network, addr string) error

func dialDisplay(network, addr string) error {
	c, err := net.DialTimeout(network, addr, displayDialTimeout)
	if err != nil {
		return err
	}
	return c.Close()
}

func available(goos string, getenv func(string) string, dial dialFunc) bool {
	switch goos {
	case "darwin", "windows", "ios", "android":
		return true
	case "js", "wasip1":
		return false
	}
	if wl := getenv("WAYLAND_DISPLAY"); wl != "" {
		addr := waylandSocket(wl, getenv("XDG_RUNTIME_DIR"))
		err := dial("unix", addr)
		if err == nil {
			return true
		}
		logging.Debugf("wayland display %s unreachable: %v", addr, err)
	}
	if d := getenv("DISPLAY"); d != "" {
		network, addr, ok := x11Address(d)
		if !ok {
			logging.Debugf("cannot parse DISPLAY=%q", d)
			return false
		}
		if err := dial(network, addr); err != nil {
			logging.Debugf("X11 display %s unreachable: %v", d, err)
			return false
		}
		return true
	}
	return false
}

// waylandSocket resolves WAYLAND_DISPLAY, which is either absolute or relative to
// XDG_RUNTIME_DIR.
func waylandSocket(name, runtimeDir string) string {
	if filepath.IsAbs(name) || runtimeDir == "" {
		return name
	}
	return filepath.Join(runtimeDir, name)
}

// x11Address maps DISPLAY ([host]:n[.screen]) to the X server socket: the local unix socket
// for an empty or "unix" host, TCP port 6000+n otherwise.
func x11Address(display string) (network, addr string, ok bool) {
	i := strings.LastIndexByte(display, ':')
	if i < 0 {
		return "", "", false
	}
	host, num := display[:i], display[i+1:]
	if j := strings.IndexByte(num, '.'); j >= 0 {
		num = num[:j]
	}
	n, err := strconv.Atoi(num)
	if err != nil || n < 0 {
		return "", "", false
	}
	switch {
	case host == "" || host == "unix":
		return "unix", "/tmp/.X11-unix/X" + strconv.Itoa(n), true
	case strings.HasPrefix(host, "/"):
		return "unix", display, true
	}
	return "tcp", net.JoinHostPort(strings.Trim(host, "[]"), strconv.Itoa(6000+n)), true
}

// windowSize scales w x h down into the maximum window box, keeping the aspect ratio.
func windowSize(w, h int) fyne.Size {
	if w <= 0 || h <= 0 {
		return fyne.NewSize(maxWindowWidth, maxWindowHeight)
	}
	scale := 1.0
	if sx := float64(maxWindowWidth) / float64(w); sx < scale {
		scale = sx
	}
	if sy := float64(maxWindowHeight) / float64(h); sy < scale {
		scale = sy
	}
	return fyne.NewSize(float32(float64(w)*scale), float32(float64(h)*scale))
}

// NewWindow builds, but does not show, a window on a displaying img.
func (v Viewer) NewWindow(a fyne.App, img image.Image) fyne.Window {
	w := a.NewWindow(v.Title)
	c := canvas.NewImageFromImage(img)
	c.FillMode = canvas.ImageFillContain
	c.ScaleMode = canvas.ImageScaleSmooth
	w.SetContent(c)

	saveItem := fyne.NewMenuItem("Save As…", func() { v.exportPNG(w, img) })
	closeItem := fyne.NewMenuItem("Close", func() { w.Close() })
	w.SetMainMenu(fyne.NewMainMenu(fyne.NewMenu("File", saveItem, fyne.NewMenuItemSeparator(), closeItem)))

	b := img.Bounds()
	w.Resize(windowSize(b.Dx(), b.Dy()))
	w.CenterOnScreen()
	return w
}

func (v Viewer) exportPNG(w fyne.Window, img image.Image) {
	fs := dialog.NewFileSave(func(wc fyne.URIWriteCloser, err error) {
		if err != nil || wc == nil {
			return
		}
		defer wc.Close()
		if err := plot.Encode(wc, img, v.DPI); err != nil {
			logging.Errorf("export %s: %v", wc.URI(), err)
			dialog.ShowError(err, w)
		}
	}, w)
	if v.FileName != "" {
		fs.SetFileName(v.FileName)
	}
	fs.Show()
}

// Show opens img and blocks until the window is closed. Without a display it returns nil
// immediately.
func (v Viewer) Show(img image.Image) error {
	if img == nil {
		return errors.New("display: no image")
	}
	if !Available() {
		logging.Debugf("no display available; skipping chart window")
		return nil
	}
	a := app.NewWithID(AppID)
	v.NewWindow(a, img).ShowAndRun()
	return nil
}
