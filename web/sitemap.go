package web

import (
	"encoding/xml"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/golang/glog"
	"golang.org/x/net/trace"
)

type SitemapChangeFreq int

const (
	SitemapChangeFreqUnspecified SitemapChangeFreq = 0
	SitemapChangeFreqAlways      SitemapChangeFreq = iota
	SitemapChangeFreqHourly
	SitemapChangeFreqDaily
	SitemapChangeFreqWeekly
	SitemapChangeFreqMonthly
	SitemapChangeFreqYearly
	SitemapChangeFreqNever
)

func (s SitemapChangeFreq) String() string {
	switch s {
	case SitemapChangeFreqUnspecified:
		return ""
	case SitemapChangeFreqAlways:
		return "always"
	case SitemapChangeFreqHourly:
		return "hourly"
	case SitemapChangeFreqDaily:
		return "daily"
	case SitemapChangeFreqWeekly:
		return "weekly"
	case SitemapChangeFreqMonthly:
		return "monthly"
	case SitemapChangeFreqYearly:
		return "yearly"
	case SitemapChangeFreqNever:
		return "never"
	}
	return "bad value"
}

func (s SitemapChangeFreq) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type SitemapURLImage struct {
	Loc string `xml:"image:loc"`
}

type SitemapURL struct {
	XMLName    xml.Name          `xml:"url"`
	Loc        string            `xml:"loc"`
	LastMod    string            `xml:"lastmod,omitempty"`
	ChangeFreq SitemapChangeFreq `xml:"changefreq,omitempty"`

	Image []SitemapURLImage `xml:"image:image,omitempty"`
}

type SitemapURLSet struct {
	XMLName    xml.Name     `xml:"http://www.sitemaps.org/schemas/sitemap/0.9 urlset"`
	XMLNSImage string       `xml:"xmlns:image,attr"`
	URL        []SitemapURL `xml:"url,omitempty"` // up to 50k entries
}

func (e *SitemapURLSet) Write(w http.ResponseWriter) {
	e.XMLNSImage = "http://www.google.com/schemas/sitemap-image/1.1"

	w.Header().Set("Content-Type", "application/xml")

	fmt.Fprintf(w, "%s", xml.Header)
	enc := xml.NewEncoder(w)
	enc.Indent("", " ")
	if err := enc.Encode(e); err != nil {
		glog.Errorf("web: encoding sitemap: %v", err)
	}
}

func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

// sitemapHandler lists every sprite page, with its frame groups as images.
// Sprites that fail to parse are listed without images.
func (h *Handler) sitemapHandler(w http.ResponseWriter, r *http.Request) {
	tr := trace.New("web.sitemap", r.URL.Path)
	defer tr.Finish()

	all, err := h.sprites()
	if err != nil {
		tr.SetError()
		http.Error(w, "<error>could not list sprites</error>", http.StatusInternalServerError)
		return
	}
	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}
	sort.Strings(names)

	base := baseURL(r)
	set := &SitemapURLSet{}
	for _, name := range names {
		u := SitemapURL{
			Loc:        base + "/wan/" + name,
			ChangeFreq: SitemapChangeFreqMonthly,
		}
		if c, err := h.loadPath(name, all[name].Path); err == nil {
			u.LastMod = c.modTime.UTC().Format(time.RFC3339)
			for i := 0; i < c.w.FrameGroups().Len(); i++ {
				u.Image = append(u.Image, SitemapURLImage{Loc: base + "/wan/" + name + "/group/" + strconv.Itoa(i) + ".png"})
			}
		} else {
			tr.LazyPrintf("%s: %v", name, err)
		}
		set.URL = append(set.URL, u)
	}
	set.Write(w)
}
