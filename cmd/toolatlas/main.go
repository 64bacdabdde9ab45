// SPDX-FileCopyrightText: The toolatlas authors
//
// SPDX-License-Identifier: MIT

//go:build linux

// Package main implements the toolatlas location service.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/text/language"

	"github.com/toolatlas/toolatlas/internal/config"
	"github.com/toolatlas/toolatlas/internal/geo"
	"github.com/toolatlas/toolatlas/internal/i18n"
	"github.com/toolatlas/toolatlas/internal/logger"
	"github.com/toolatlas/toolatlas/internal/presenter"
	"github.com/toolatlas/toolatlas/internal/service"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGKILL,
		syscall.SIGABRT, os.Interrupt)
	defer cancel()

	// Initialize Logger
	log := logger.New(slog.LevelError)

	// Read config
	confRead := false
	confPath := flag.String("config", "", "path to the config file")
	searchQuery := flag.String("search", "", "search for a place and print ranked candidates")
	manualCoord := flag.String("manual", "", "set a manual location as \"lat,lon\" and print the resolved place")
	detect := flag.Bool("detect", false, "acquire the current position once and print the resolved place")
	flag.Parse()

	// Read default config
	conf, err := config.New()
	if err != nil {
		log.Error("failed to load config", logger.Err(err))
		os.Exit(1)
	}

	// If config file was specified, read it
	if *confPath != "" {
		file := filepath.Base(*confPath)
		path := filepath.Dir(*confPath)
		conf, err = config.NewFromFile(path, file)
		if err != nil {
			log.Error("failed to load config from file", logger.Err(err))
			os.Exit(1)
		}
		confRead = true
	}

	// Check if we have a config file in the default location
	if path, file := findConfigFile(); !confRead && (path != "" && file != "") {
		conf, err = config.NewFromFile(path, file)
		if err != nil {
			log.Error("failed to load config from file", logger.Err(err))
			os.Exit(1)
		}
	}

	log = logger.New(conf.LogLevel)
	t, err := i18n.New(conf.Locale)
	if err != nil {
		log.Error("failed to initialize localizer", logger.Err(err))
		os.Exit(1)
	}

	// Initialize the service
	serv, err := service.New(conf, log)
	if err != nil {
		log.Error("failed to initialize toolatlas service", logger.Err(err))
		os.Exit(1)
	}
	present := presenter.New(t, language.Make(conf.Locale))

	// One-shot modes exit without starting the service loop
	switch {
	case *searchQuery != "":
		runSearch(ctx, serv, present, log, *searchQuery)
		return
	case *manualCoord != "":
		runManual(ctx, serv, present, log, *manualCoord)
		return
	case *detect:
		runDetect(ctx, serv, present, log)
		return
	}

	// Start the service loop
	log.Info(t.Get("starting toolatlas service"), slog.String("version", version),
		slog.String("commit", commit), slog.String("date", date))
	if err = serv.Run(ctx); err != nil {
		log.Error(t.Get("failed to start toolatlas service"), logger.Err(err))
	}
	log.Info(t.Get("shutting down toolatlas service"))
}

func runSearch(ctx context.Context, serv *service.Service, present *presenter.Presenter,
	log *logger.Logger, query string,
) {
	candidates, err := serv.Search(ctx, query)
	if err != nil {
		log.Error("place search failed", logger.Err(err))
		os.Exit(1)
	}
	fmt.Println(present.Candidates(candidates))
}

func runManual(ctx context.Context, serv *service.Service, present *presenter.Presenter,
	log *logger.Logger, input string,
) {
	coord, err := parseCoordinate(input)
	if err != nil {
		log.Error("invalid manual coordinate", logger.Err(err))
		os.Exit(1)
	}
	if err = serv.SetManual(coord); err != nil {
		log.Error("failed to set manual location", logger.Err(err))
		os.Exit(1)
	}
	resolved, err := serv.ResolvePlace(ctx, coord)
	if err != nil {
		log.Error("failed to resolve place", logger.Err(err))
		os.Exit(1)
	}
	fmt.Println(present.Place(resolved))
}

func runDetect(ctx context.Context, serv *service.Service, present *presenter.Presenter, log *logger.Logger) {
	fix, err := serv.Locate(ctx, true)
	if err != nil {
		log.Error("failed to acquire position", logger.Err(err))
		os.Exit(1)
	}
	resolved, err := serv.ResolvePlace(ctx, fix.Coordinate)
	if err != nil {
		log.Error("failed to resolve place", logger.Err(err))
		os.Exit(1)
	}
	fmt.Println(present.Place(resolved))
}

func parseCoordinate(input string) (geo.Coordinate, error) {
	parts := strings.SplitN(input, ",", 2)
	if len(parts) != 2 {
		return geo.Coordinate{}, fmt.Errorf("expected \"lat,lon\", got %q", input)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("invalid latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("invalid longitude: %w", err)
	}
	coord := geo.Coordinate{Lat: lat, Lon: lon}
	return coord, coord.Validate()
}

func findConfigFile() (string, string) {
	homedir, err := os.UserHomeDir()
	if err != nil {
		return "", ""
	}
	exts := []string{"toml", "yaml", "yml", "json"}
	for _, ext := range exts {
		path := filepath.Join(homedir, ".config", "toolatlas", "config."+ext)
		if _, err = os.Stat(path); err == nil {
			return filepath.Dir(path), filepath.Base(path)
		}
	}
	return "", ""
}
