// Package web serves sprites, their frames and animations over HTTP.
package web

import (
	"bytes"
	"fmt"
	"html/template"
	"image"
	"image/gif"
	"image/png"
	"net/http"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/gorilla/mux"
	"github.com/nfnt/resize"
	"github.com/pkg/errors"
	"github.com/vincent-petithory/dataurl"
	"golang.org/x/net/trace"

	"badc0de.net/pkg/go-pmdwan/datafiles"
	"badc0de.net/pkg/go-pmdwan/paths"
	"badc0de.net/pkg/go-pmdwan/wan"
	"badc0de.net/pkg/go-pmdwan/wan/animgif"
)

// generation is part of every ETag; bump it if the way images are generated
// changes.
const generation = 1

const maxScale = 16

type cachedSprite struct {
	w       *wan.WanImage
	path    string
	modTime time.Time
	size    int64
}

func (c *cachedSprite) etag(kind string, args ...interface{}) string {
	return fmt.Sprintf(`W/"%d:%s:%d:%d:%s:%s"`, generation, c.path, c.modTime.UnixNano(), c.size, kind, fmt.Sprint(args...))
}

type Handler struct {
	finder *paths.Finder
	tmpl   *template.Template

	// GIFLoop is the loop count of served animations.
	GIFLoop int

	mu    sync.Mutex
	cache map[string]*cachedSprite
}

// NewHandler constructs a web handler serving every sprite the finder knows
// about.
func NewHandler(finder *paths.Finder) (*Handler, error) {
	tmpl, err := datafiles.Templates()
	if err != nil {
		return nil, err
	}
	return &Handler{
		finder: finder,
		tmpl:   tmpl,
		cache:  make(map[string]*cachedSprite),
	}, nil
}

type spriteEntry struct {
	Name string
	Path string
	Size int64
}

// sprites maps sprite names (paths relative to their search directory, without
// extension) to files.
func (h *Handler) sprites() (map[string]spriteEntry, error) {
	all, err := h.finder.All()
	if err != nil {
		return nil, err
	}
	out := make(map[string]spriteEntry, len(all))
	for rel, path := range all {
		name := rel[:len(rel)-len(paths.Ext)]
		e := spriteEntry{Name: name, Path: path}
		if st, err := os.Stat(path); err == nil {
			e.Size = st.Size()
		}
		out[name] = e
	}
	return out, nil
}

// load returns the parsed sprite called name.
func (h *Handler) load(name string) (*cachedSprite, error) {
	path := h.finder.FindSprite(name)
	if path == "" {
		return nil, os.ErrNotExist
	}
	return h.loadPath(name, path)
}

// loadPath returns the parsed sprite at path, parsing it again if the file
// changed since it was cached under name.
func (h *Handler) loadPath(name, path string) (*cachedSprite, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.cache[name]; ok && c.path == path && c.modTime.Equal(st.ModTime()) && c.size == st.Size() {
		return c, nil
	}
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	w, err := wan.Parse(buf)
	if err != nil {
		return nil, err
	}
	c := &cachedSprite{w: w, path: path, modTime: st.ModTime(), size: st.Size()}
	h.cache[name] = c
	glog.V(2).Infof("web: parsed %s (%s)", name, path)
	return c, nil
}

// spriteFor loads the sprite named in the request, reporting failures to the
// client. It returns nil if the request has been answered.
func (h *Handler) spriteFor(w http.ResponseWriter, r *http.Request, tr trace.Trace) *cachedSprite {
	name := mux.Vars(r)["name"]
	c, err := h.load(name)
	if os.IsNotExist(err) {
		http.Error(w, "no such sprite", http.StatusNotFound)
		return nil
	}
	if err != nil {
		tr.LazyPrintf("loading %s: %v", name, err)
		tr.SetError()
		glog.Errorf("web: loading %s: %v", name, err)
		http.Error(w, "failed to load sprite", http.StatusInternalServerError)
		return nil
	}
	tr.LazyPrintf("sprite %s from %s", name, c.path)
	return c
}

// notModified answers conditional requests. It returns true if the request
// has been answered.
func notModified(w http.ResponseWriter, r *http.Request, etag string) bool {
	if r.Header.Get("If-None-Match") == etag {
		w.Header().Set("Cache-Control", "public; max-age=36000") // 36000 = 10h
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return true
	}
	return false
}

func intVar(r *http.Request, name string) (int, error) {
	return strconv.Atoi(mux.Vars(r)[name])
}

// scaleParam reads ?scale=, clamped to [1, maxScale]. Invalid values are
// ignored.
func scaleParam(r *http.Request) int {
	s, err := strconv.Atoi(r.URL.Query().Get("scale"))
	if err != nil || s < 1 {
		return 1
	}
	if s > maxScale {
		return maxScale
	}
	return s
}

func scaled(img image.Image, factor int) image.Image {
	if factor <= 1 {
		return img
	}
	b := img.Bounds()
	return resize.Resize(uint(b.Dx()*factor), uint(b.Dy()*factor), img, resize.NearestNeighbor)
}

func writeImage(w http.ResponseWriter, c *cachedSprite, etag, mime string, encode func(*bytes.Buffer) error) {
	buf := &bytes.Buffer{}
	if err := encode(buf); err != nil {
		glog.Errorf("web: encoding %s: %v", mime, err)
		http.Error(w, "failed to encode image", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "public; max-age=3600")
	w.Header().Set("ETag", etag)
	w.Header().Set("Last-Modified", c.modTime.UTC().Format(http.TimeFormat))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (h *Handler) indexHandler(w http.ResponseWriter, r *http.Request) {
	tr := trace.New("web.index", r.URL.Path)
	defer tr.Finish()

	all, err := h.sprites()
	if err != nil {
		tr.SetError()
		glog.Errorf("web: listing sprites: %v", err)
		http.Error(w, "failed to list sprites", http.StatusInternalServerError)
		return
	}
	var data struct{ Sprites []spriteEntry }
	for _, e := range all {
		data.Sprites = append(data.Sprites, e)
	}
	sort.Slice(data.Sprites, func(i, j int) bool { return data.Sprites[i].Name < data.Sprites[j].Name })
	tr.LazyPrintf("%d sprites", len(data.Sprites))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.tmpl.ExecuteTemplate(w, "index.html", data); err != nil {
		glog.Errorf("web: index template: %v", err)
	}
}

type groupThumb struct {
	Index   int
	DataURL string
	Err     error
}

type animEntry struct {
	Group, Index, Frames int
}

func (h *Handler) spriteHandler(w http.ResponseWriter, r *http.Request) {
	tr := trace.New("web.sprite", r.URL.Path)
	defer tr.Finish()
	c := h.spriteFor(w, r, tr)
	if c == nil {
		return
	}
	s := c.w

	data := struct {
		Name        string
		Type        wan.SpriteType
		Size        int64
		Is256Color  bool
		Images      int
		Fragments   int
		Colors      int
		SubPalettes []int
		Groups      []groupThumb
		Animations  []animEntry
	}{
		Name:       mux.Vars(r)["name"],
		Type:       s.SpriteType(),
		Size:       c.size,
		Is256Color: s.Is256Color(),
		Images:     s.Images().Len(),
		Fragments:  s.Fragments().Len(),
		Colors:     s.Palette().Len(),
	}
	for i := 0; i < s.Palette().SubPaletteCount(); i++ {
		data.SubPalettes = append(data.SubPalettes, i)
	}
	for i := 0; i < s.FrameGroups().Len(); i++ {
		thumb := groupThumb{Index: i}
		img, _, err := s.CompositeGroup(i)
		if err == nil {
			buf := &bytes.Buffer{}
			if err = png.Encode(buf, scaled(img, 2)); err == nil {
				thumb.DataURL = dataurl.New(buf.Bytes(), "image/png").String()
			}
		}
		thumb.Err = err
		data.Groups = append(data.Groups, thumb)
	}
	for g := 0; g < s.Animations().Len(); g++ {
		n, _ := s.Animations().GroupLen(g)
		for a := 0; a < n; a++ {
			anim, err := s.Animations().Animation(g, a)
			if err != nil || len(anim.Frames) == 0 {
				continue
			}
			data.Animations = append(data.Animations, animEntry{Group: g, Index: a, Frames: len(anim.Frames)})
		}
	}
	tr.LazyPrintf("%d frame groups, %d animations", len(data.Groups), len(data.Animations))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.tmpl.ExecuteTemplate(w, "sprite.html", data); err != nil {
		glog.Errorf("web: sprite template: %v", err)
	}
}

func (h *Handler) fragmentHandler(w http.ResponseWriter, r *http.Request) {
	tr := trace.New("web.fragment", r.URL.Path)
	defer tr.Finish()
	id, err := intVar(r, "id")
	if err != nil {
		http.Error(w, "id not a number", http.StatusBadRequest)
		return
	}
	c := h.spriteFor(w, r, tr)
	if c == nil {
		return
	}
	scale := scaleParam(r)
	etag := c.etag("fragment", id, ".", scale)
	if notModified(w, r, etag) {
		return
	}

	img, err := c.w.RenderFragment(id)
	if err != nil {
		tr.LazyPrintf("fragment %d: %v", id, err)
		tr.SetError()
		http.Error(w, err.Error(), renderErrorStatus(err))
		return
	}
	writeImage(w, c, etag, "image/png", func(buf *bytes.Buffer) error {
		return png.Encode(buf, scaled(img, scale))
	})
}

func (h *Handler) groupHandler(w http.ResponseWriter, r *http.Request) {
	tr := trace.New("web.group", r.URL.Path)
	defer tr.Finish()
	idx, err := intVar(r, "idx")
	if err != nil {
		http.Error(w, "idx not a number", http.StatusBadRequest)
		return
	}
	c := h.spriteFor(w, r, tr)
	if c == nil {
		return
	}
	scale := scaleParam(r)
	etag := c.etag("group", idx, ".", scale)
	if notModified(w, r, etag) {
		return
	}

	img, origin, err := c.w.CompositeGroup(idx)
	if err != nil {
		tr.LazyPrintf("frame group %d: %v", idx, err)
		tr.SetError()
		http.Error(w, err.Error(), renderErrorStatus(err))
		return
	}
	w.Header().Set("X-Origin", fmt.Sprintf("%d,%d", origin.X, origin.Y))
	writeImage(w, c, etag, "image/png", func(buf *bytes.Buffer) error {
		return png.Encode(buf, scaled(img, scale))
	})
}

func (h *Handler) animHandler(w http.ResponseWriter, r *http.Request) {
	tr := trace.New("web.anim", r.URL.Path)
	defer tr.Finish()
	group, err := intVar(r, "group")
	if err != nil {
		http.Error(w, "group not a number", http.StatusBadRequest)
		return
	}
	anim, err := intVar(r, "anim")
	if err != nil {
		http.Error(w, "anim not a number", http.StatusBadRequest)
		return
	}
	c := h.spriteFor(w, r, tr)
	if c == nil {
		return
	}
	scale := scaleParam(r)
	etag := c.etag("anim", group, "-", anim, ".", scale, ".", h.GIFLoop)
	if notModified(w, r, etag) {
		return
	}

	g, err := animgif.Build(c.w, group, anim, &animgif.Options{LoopCount: h.GIFLoop, Scale: scale})
	if err != nil {
		tr.LazyPrintf("animation %d/%d: %v", group, anim, err)
		tr.SetError()
		http.Error(w, err.Error(), renderErrorStatus(err))
		return
	}
	writeImage(w, c, etag, "image/gif", func(buf *bytes.Buffer) error {
		return gif.EncodeAll(buf, g)
	})
}

func (h *Handler) paletteHandler(w http.ResponseWriter, r *http.Request) {
	tr := trace.New("web.palette", r.URL.Path)
	defer tr.Finish()
	sub, err := intVar(r, "sub")
	if err != nil {
		http.Error(w, "sub not a number", http.StatusBadRequest)
		return
	}
	c := h.spriteFor(w, r, tr)
	if c == nil {
		return
	}
	etag := c.etag("palette", sub)
	if notModified(w, r, etag) {
		return
	}

	img, err := animgif.SubPaletteSwatch(c.w.Palette(), sub, 16)
	if err != nil {
		http.Error(w, err.Error(), renderErrorStatus(err))
		return
	}
	writeImage(w, c, etag, "image/gif", func(buf *bytes.Buffer) error {
		return gif.Encode(buf, img, nil)
	})
}

// renderErrorStatus maps render errors to HTTP statuses: asking for something
// the sprite does not have is the client's fault, anything else is ours.
func renderErrorStatus(err error) int {
	if errors.Is(err, wan.ErrIndexOutOfRange) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// RegisterRoutes adds the sprite browser's routes to r.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	const name = "{name:[A-Za-z0-9_/-]+}"
	r.HandleFunc("/", h.indexHandler)
	r.HandleFunc("/sitemap.xml", h.sitemapHandler)
	r.HandleFunc("/wan/"+name+"/fragment/{id:[0-9]+}.png", h.fragmentHandler)
	r.HandleFunc("/wan/"+name+"/group/{idx:[0-9]+}.png", h.groupHandler)
	r.HandleFunc("/wan/"+name+"/anim/{group:[0-9]+}-{anim:[0-9]+}.gif", h.animHandler)
	r.HandleFunc("/wan/"+name+"/palette/{sub:[0-9]+}.gif", h.paletteHandler)
	r.HandleFunc("/wan/"+name, h.spriteHandler)
}
