//go:build aix || darwin || dragonfly || freebsd || linux || netbsd || openbsd || solaris

package imageprint

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strconv"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"golang.org/x/crypto/ssh/terminal"
	"golang.org/x/sys/unix"
)

var kittyWindowSize = regexp.MustCompile(`\[4;(\d+);(\d+)t`)

// GetTermSize asks the controlling terminal for its size.
func GetTermSize() (TermSize, error) {
	f, err := os.OpenFile("/dev/tty", unix.O_NOCTTY|unix.O_CLOEXEC|unix.O_NDELAY|unix.O_RDWR, 0666)
	if err == nil {
		// https://sw.kovidgoyal.net/kitty/graphics-protocol/#getting-the-window-size
		defer f.Close()
		var sz *unix.Winsize
		if sz, err = unix.IoctlGetWinsize(int(f.Fd()), unix.TIOCGWINSZ); err == nil {
			if sz.Xpixel == 0 && sz.Ypixel == 0 && os.Getenv("TERM") == "xterm-kitty" {
				if w, h, err := queryPixelSize(f); err == nil {
					sz.Xpixel, sz.Ypixel = uint16(w), uint16(h)
				} else {
					glog.V(2).Infof("imageprint: no pixel size from kitty: %v", err)
				}
			}
			return TermSize{WSRow: uint(sz.Row), WSCol: uint(sz.Col), WSXPixel: uint(sz.Xpixel), WSYPixel: uint(sz.Ypixel)}, nil
		}
	}
	var w, h int
	if w, h, err = terminal.GetSize(0); err == nil {
		return TermSize{WSRow: uint(h), WSCol: uint(w)}, nil
	}
	return TermSize{}, err
}

// queryPixelSize sends CSI 14 t and parses the <ESC>[4;<height>;<width>t
// reply.
func queryPixelSize(tty *os.File) (int, int, error) {
	state, err := terminal.MakeRaw(int(tty.Fd()))
	if err != nil {
		return 0, 0, err
	}
	defer terminal.Restore(int(tty.Fd()), state)

	fmt.Fprint(tty, "\033[14t")
	// TODO: time out when the terminal never replies.
	s, err := bufio.NewReader(os.Stdin).ReadString('t')
	if err != nil {
		return 0, 0, err
	}
	m := kittyWindowSize.FindStringSubmatch(s)
	if len(m) != 3 {
		return 0, 0, errors.Errorf("unexpected reply %q", s)
	}
	h, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, 0, err
	}
	w, err := strconv.Atoi(m[2])
	if err != nil {
		return 0, 0, err
	}
	return w, h, nil
}
