// Package discovery advertises and finds board servers on the local network
// over mDNS.
package discovery

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/mdns"
)

const (
	ServiceType = "_sketchsphere._tcp"

	txtTag     = "sketchsphere"
	txtGRPCKey = "grpc="
	txtHTTPKey = "http="
)

type Service struct {
	// Instance defaults to the hostname.
	Instance string
	GRPCPort int
	HTTPPort int
}

func (s Service) txt() []string {
	return []string{
		txtTag,
		txtGRPCKey + strconv.Itoa(s.GRPCPort),
		txtHTTPKey + strconv.Itoa(s.HTTPPort),
	}
}

// Advertise publishes svc until the returned server is shut down.
func Advertise(svc Service) (*mdns.Server, error) {
	if svc.Instance == "" {
		host, err := os.Hostname()
		if err != nil {
			return nil, fmt.Errorf("could not get hostname: %w", err)
		}
		svc.Instance = host
	}

	service, err := mdns.NewMDNSService(svc.Instance, ServiceType, "", "", svc.GRPCPort, nil, svc.txt())
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS service: %w", err)
	}
	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("failed to start mDNS server: %w", err)
	}
	return server, nil
}

type Entry struct {
	Instance string
	Host     string
	GRPCAddr string
	HTTPAddr string
}

// Browse collects the servers answering within timeout.
func Browse(timeout time.Duration) ([]Entry, error) {
	found := make(chan *mdns.ServiceEntry, 16)
	var entries []Entry
	done := make(chan struct{})
	go func() {
		defer close(done)
		for e := range found {
			if entry, ok := toEntry(e); ok {
				entries = append(entries, entry)
			}
		}
	}()

	params := mdns.DefaultParams(ServiceType)
	params.Entries = found
	params.Timeout = timeout
	params.DisableIPv6 = true
	err := mdns.Query(params)
	close(found)
	<-done
	if err != nil {
		return nil, fmt.Errorf("mDNS lookup failed: %w", err)
	}
	return entries, nil
}

func toEntry(e *mdns.ServiceEntry) (Entry, bool) {
	if e == nil || e.AddrV4 == nil || e.Port == 0 {
		return Entry{}, false
	}
	grpcPort, httpPort := parseTXT(e.InfoFields)
	if grpcPort == 0 {
		grpcPort = e.Port
	}
	entry := Entry{
		Instance: strings.TrimSuffix(e.Name, "."+ServiceType+".local."),
		Host:     e.Host,
		GRPCAddr: net.JoinHostPort(e.AddrV4.String(), strconv.Itoa(grpcPort)),
	}
	if httpPort != 0 {
		entry.HTTPAddr = net.JoinHostPort(e.AddrV4.String(), strconv.Itoa(httpPort))
	}
	return entry, true
}

func parseTXT(fields []string) (grpcPort, httpPort int) {
	for _, f := range fields {
		switch {
		case strings.HasPrefix(f, txtGRPCKey):
			grpcPort, _ = strconv.Atoi(strings.TrimPrefix(f, txtGRPCKey))
		case strings.HasPrefix(f, txtHTTPKey):
			httpPort, _ = strconv.Atoi(strings.TrimPrefix(f, txtHTTPKey))
		}
	}
	return grpcPort, httpPort
}

// PortFromAddr extracts the port of a listen address such as ":50051".
func PortFromAddr(addr string) (int, error) {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q: %w", addr, err)
	}
	p, err := strconv.Atoi(port)
	if err != nil {
		return 0, fmt.Errorf("invalid port in %q: %w", addr, err)
	}
	return p, nil
}
