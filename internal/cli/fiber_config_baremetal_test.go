//go:build !docker

package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCreateFiberConfigProxyHeaderBareMetal(t *testing.T) {
	config := createFiberConfig("Test App")

	// Bare metal faces clients directly and must not trust proxy headers
	assert.Empty(t, config.ProxyHeader, "ProxyHeader should be empty for bare metal deployments")
}
