package main

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/golang/glog"
	"github.com/nfnt/resize"
	"github.com/pkg/errors"

	"badc0de.net/pkg/go-pmdwan/wan"
	"badc0de.net/pkg/go-pmdwan/wan/animgif"
)

type exporter struct {
	dir       string
	scale     int
	composite bool
	gifs      bool
	gifLoop   int
}

func (e *exporter) scaled(img image.Image) image.Image {
	if e.scale <= 1 {
		return img
	}
	b := img.Bounds()
	return resize.Resize(uint(b.Dx()*e.scale), uint(b.Dy()*e.scale), img, resize.NearestNeighbor)
}

func writeFile(path string, data []byte, st *stats) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	st.wrote(int64(len(data)))
	glog.V(2).Infof("wrote %s", path)
	return nil
}

func (e *exporter) writePNG(path string, img image.Image, st *stats) error {
	buf := &bytes.Buffer{}
	if err := png.Encode(buf, e.scaled(img)); err != nil {
		return errors.Wrapf(err, "encoding %s", path)
	}
	return writeFile(path, buf.Bytes(), st)
}

// export writes <dir>/<base>/<group>/<n>.png for the n-th fragment of every
// frame group. Fragments that cannot be rendered are skipped.
func (e *exporter) export(base string, s *wan.WanImage, st *stats) error {
	root := filepath.Join(e.dir, base)
	for g := 0; g < s.FrameGroups().Len(); g++ {
		layers, err := s.RenderGroup(g)
		if err != nil {
			return err
		}
		for n, l := range layers {
			if l.Err != nil {
				glog.Warningf("%s: frame group %d fragment %d: %v", base, g, l.FragmentID, l.Err)
				continue
			}
			if err := e.writePNG(filepath.Join(root, fmt.Sprint(g), fmt.Sprintf("%d.png", n)), l.Image, st); err != nil {
				return err
			}
		}
		if !e.composite || len(layers) == 0 {
			continue
		}
		img, _, err := s.CompositeGroup(g)
		if err != nil {
			return err
		}
		if err := e.writePNG(filepath.Join(root, fmt.Sprintf("%d.png", g)), img, st); err != nil {
			return err
		}
	}

	if !e.gifs {
		return nil
	}
	for g := 0; g < s.Animations().Len(); g++ {
		n, err := s.Animations().GroupLen(g)
		if err != nil {
			return err
		}
		for a := 0; a < n; a++ {
			buf := &bytes.Buffer{}
			err := animgif.Encode(buf, s, g, a, &animgif.Options{LoopCount: e.gifLoop, Scale: e.scale})
			if errors.Is(err, animgif.ErrEmptyAnimation) {
				continue
			}
			if err != nil {
				return errors.Wrapf(err, "animation %d/%d", g, a)
			}
			if err := writeFile(filepath.Join(root, "anim", fmt.Sprintf("%d-%d.gif", g, a)), buf.Bytes(), st); err != nil {
				return err
			}
		}
	}
	return nil
}
