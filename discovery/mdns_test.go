package discovery

import (
	"net"
	"testing"

	"github.com/hashicorp/mdns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceTXTRoundTrip(t *testing.T) {
	grpcPort, httpPort := parseTXT(Service{GRPCPort: 50051, HTTPPort: 5000}.txt())
	assert.Equal(t, 50051, grpcPort)
	assert.Equal(t, 5000, httpPort)
}

func TestToEntry(t *testing.T) {
	entry, ok := toEntry(&mdns.ServiceEntry{
		Name:       "studio." + ServiceType + ".local.",
		Host:       "studio.local.",
		AddrV4:     net.IPv4(192, 168, 1, 20),
		Port:       50051,
		InfoFields: []string{"sketchsphere", "grpc=50051", "http=5000"},
	})
	require.True(t, ok)
	assert.Equal(t, "studio", entry.Instance)
	assert.Equal(t, "192.168.1.20:50051", entry.GRPCAddr)
	assert.Equal(t, "192.168.1.20:5000", entry.HTTPAddr)

	_, ok = toEntry(&mdns.ServiceEntry{Port: 50051})
	assert.False(t, ok)
}

func TestPortFromAddr(t *testing.T) {
	port, err := PortFromAddr(":50051")
	require.NoError(t, err)
	assert.Equal(t, 50051, port)

	_, err = PortFromAddr("50051")
	assert.Error(t, err)
}
