// Command wanprint decodes WAN sprites, exports their frames and animations,
// and prints them to the terminal.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"badc0de.net/pkg/flagutil/v1"
	"github.com/dustin/go-humanize"
	"github.com/golang/glog"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"badc0de.net/pkg/go-pmdwan/config"
	"badc0de.net/pkg/go-pmdwan/imageprint"
	"badc0de.net/pkg/go-pmdwan/paths"
	"badc0de.net/pkg/go-pmdwan/wan"
)

var (
	configPath = flag.String("config", "", "TOML config file; the default locations are used if empty")
	outputDir  = flag.String("out", "", "directory to export PNG frames into; nothing is exported if empty and -export is not set")
	export     = flag.Bool("export", false, "export every fragment of every frame group as PNG")
	composite  = flag.Bool("composite", false, "also export every frame group composited into one PNG")
	gifs       = flag.Bool("gif", false, "also export every animation as an animated GIF")
	scale      = flag.Int("scale", 0, "integer upscaling of exported images")
	workers    = flag.Int("workers", 0, "sprites converted in parallel")
	doPrint    = flag.Bool("print", false, "print a frame group of every sprite to the terminal")
	printGroup = flag.Int("group", 0, "frame group to print")
	mode       = flag.String("mode", "", "terminal print mode: auto, 24bit, 256color, nocolor, iterm or rasterm")
	blanks     = flag.Bool("blanks", false, "print colored blanks instead of shaded characters")
	downsize   = flag.Bool("downsize", true, "shrink printed images to fit the terminal")

	finder = &paths.Finder{}
)

// settings merges the config file with flags given on the command line.
func settings() (*config.Config, error) {
	var cfgPaths []string
	if *configPath != "" {
		cfgPaths = []string{*configPath}
	}
	cfg, err := config.Load(cfgPaths...)
	if err != nil {
		return nil, err
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "out":
			cfg.OutputDir = *outputDir
		case "scale":
			cfg.Scale = *scale
		case "workers":
			cfg.Workers = *workers
		case "mode":
			cfg.Print.Mode = *mode
		case "blanks":
			cfg.Print.Blanks = *blanks
		case "sprite_dirs":
			cfg.SearchDirs = finder.Dirs
		}
	})
	cfg.Normalize()
	return cfg, nil
}

type stats struct {
	sprites, failed int64
	read, written   int64
	files           int64
}

func (s *stats) wrote(n int64) {
	atomic.AddInt64(&s.files, 1)
	atomic.AddInt64(&s.written, n)
}

func load(name string, st *stats) (*wan.WanImage, error) {
	f, err := finder.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	buf, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", name)
	}
	atomic.AddInt64(&st.read, int64(len(buf)))
	return wan.Parse(buf)
}

func main() {
	paths.SetupDirsFlag(finder, "sprite_dirs")
	flagutil.Parse()

	cfg, err := settings()
	if err != nil {
		glog.Exitf("loading config: %v", err)
	}
	finder.Dirs = cfg.SearchDirs

	m, err := imageprint.ParseMode(cfg.Print.Mode)
	if err != nil {
		glog.Exit(err)
	}
	printer := imageprint.New(os.Stdout)
	printer.Blanks = cfg.Print.Blanks
	if *doPrint && *downsize {
		if err := printer.FitTerminal(m); err != nil {
			glog.V(1).Infof("not fitting images to the terminal: %v", err)
		}
	}

	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] sprite.wan|directory|url...\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}
	names, err := finder.Expand(args)
	if err != nil {
		glog.Exit(err)
	}

	ex := &exporter{
		dir:       cfg.OutputDir,
		scale:     cfg.Scale,
		composite: *composite,
		gifs:      *gifs,
		gifLoop:   cfg.GIF.Loop,
	}
	exporting := *export || *outputDir != "" || *composite || *gifs

	st := &stats{}
	var printMu sync.Mutex
	var g errgroup.Group
	g.SetLimit(cfg.Workers)
	for _, name := range names {
		name := name
		g.Go(func() error {
			s, err := load(name, st)
			if err != nil {
				// Keep going; one bad sprite should not stop a batch.
				glog.Errorf("%s: %v", name, err)
				atomic.AddInt64(&st.failed, 1)
				return nil
			}
			atomic.AddInt64(&st.sprites, 1)
			glog.V(1).Infof("%s: %s sprite, %d frame groups, %d animation groups", name, s.SpriteType(), s.FrameGroups().Len(), s.Animations().Len())

			if exporting {
				if err := ex.export(paths.BaseName(name), s, st); err != nil {
					glog.Errorf("%s: exporting: %v", name, err)
					atomic.AddInt64(&st.failed, 1)
				}
			}
			if *doPrint {
				img, _, err := s.CompositeGroup(*printGroup)
				if err != nil {
					glog.Errorf("%s: frame group %d: %v", name, *printGroup, err)
					return nil
				}
				printMu.Lock()
				defer printMu.Unlock()
				fmt.Printf("%s, frame group %d:\n", name, *printGroup)
				if err := printer.Print(img, m, paths.BaseName(name)+".png"); err != nil {
					glog.Errorf("%s: printing: %v", name, err)
				}
			}
			return nil
		})
	}
	g.Wait()

	glog.Infof("decoded %s sprites (%s), %s failed", humanize.Comma(st.sprites), humanize.Bytes(uint64(st.read)), humanize.Comma(st.failed))
	if exporting {
		glog.Infof("wrote %s files (%s) to %s", humanize.Comma(st.files), humanize.Bytes(uint64(st.written)), cfg.OutputDir)
	}
	glog.Flush()
	if st.failed > 0 {
		os.Exit(1)
	}
}
