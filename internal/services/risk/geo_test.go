package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsAnonymizedIP(t *testing.T) {
	tests := []struct {
		name string
		ip   string
		want bool
	}{
		{name: "empty", ip: "", want: false},
		{name: "unparseable", ip: "not-an-ip", want: false},
		{name: "residential", ip: "89.160.20.112", want: false},
		{name: "datacenter aws", ip: "54.239.28.85", want: true},
		{name: "datacenter gcp", ip: "35.190.247.1", want: true},
		{name: "tor exit", ip: "185.220.101.45", want: true},
		{name: "private stays quiet", ip: "192.168.1.10", want: false},
		{name: "loopback stays quiet", ip: "127.0.0.1", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isAnonymizedIP(tt.ip))
		})
	}
}

func TestIsHighRiskCountry(t *testing.T) {
	assert.True(t, isHighRiskCountry("RU"))
	assert.True(t, isHighRiskCountry("KP"))
	assert.False(t, isHighRiskCountry("US"))
	assert.False(t, isHighRiskCountry(""))
}
