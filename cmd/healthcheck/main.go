// Package main is the container health probe.
//
//	healthcheck         # GET /livez
//	healthcheck ready   # GET /readyz
//
// It exits 0 on HTTP 200 and 1 otherwise.
package main

import (
	"net/http"
	"net/url"
	"os"
	"time"
)

const (
	defaultPort  = "5000"
	probeTimeout = 8 * time.Second
)

func main() {
	os.Exit(probe(os.Args[1:]))
}

func probe(args []string) int {
	port := os.Getenv("ADVISOR_PORT")
	if port == "" {
		port = defaultPort
	}

	target := url.URL{Scheme: "http", Host: "127.0.0.1:" + port, Path: "/livez"}
	if len(args) > 0 && args[0] == "ready" {
		target.Path = "/readyz"
	}

	client := http.Client{Timeout: probeTimeout}
	resp, err := client.Get(target.String())
	if err != nil {
		return 1
	}
	_ = resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 1
	}
	return 0
}
