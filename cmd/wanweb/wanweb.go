// Command wanweb serves a browser for the WAN sprites found in the search
// directories.
package main

import (
	"flag"
	"net/http"
	"os"

	"badc0de.net/pkg/flagutil/v1"
	"github.com/common-nighthawk/go-figure"
	"github.com/golang/glog"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	_ "golang.org/x/net/trace" // /debug/requests

	"badc0de.net/pkg/go-pmdwan/config"
	"badc0de.net/pkg/go-pmdwan/paths"
	"badc0de.net/pkg/go-pmdwan/web"
)

var (
	configPath    = flag.String("config", "", "TOML config file; the default locations are used if empty")
	listenAddress = flag.String("listen_address", "", "http listen address for wanweb (default from config, or :8080)")

	finder = &paths.Finder{}
)

func main() {
	paths.SetupDirsFlag(finder, "sprite_dirs")
	flagutil.Parse()

	var cfgPaths []string
	if *configPath != "" {
		cfgPaths = []string{*configPath}
	}
	cfg, err := config.Load(cfgPaths...)
	if err != nil {
		glog.Exitf("loading config: %v", err)
	}
	if *listenAddress != "" {
		cfg.ListenAddress = *listenAddress
	}
	if len(finder.Dirs) == 0 {
		finder.Dirs = cfg.SearchDirs
	}

	h, err := web.NewHandler(finder)
	if err != nil {
		glog.Exitf("setting up handlers: %v", err)
	}
	h.GIFLoop = cfg.GIF.Loop

	r := mux.NewRouter()
	h.RegisterRoutes(r)
	r.PathPrefix("/debug/").Handler(http.DefaultServeMux)

	figure.NewFigure("wanweb", "", true).Print()
	glog.Infof("serving sprites from %v on %s", finder.Dirs, cfg.ListenAddress)
	glog.Fatal(http.ListenAndServe(cfg.ListenAddress, handlers.LoggingHandler(os.Stderr, r)))
}
