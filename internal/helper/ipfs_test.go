package helper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsUrl(t *testing.T) {
	assert.True(t, IsUrl("https://example.com/meta/1"))
	assert.True(t, IsUrl("ipfs://QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG"))
	assert.False(t, IsUrl("QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG"))
	assert.False(t, IsUrl(""))
}

func TestIsIpfs(t *testing.T) {
	assert.True(t, IsIpfs("ipfs://QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG"))
	assert.True(t, IsIpfs("https://gateway.ipfs.io/ipfs/QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG/1"))
	assert.False(t, IsIpfs("https://example.com/meta/1"))
	assert.False(t, IsIpfs("not a uri"))
}

func TestResolveIpfs(t *testing.T) {
	resolved := ResolveIpfs("ipfs://QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG/1", "https://cloudflare-ipfs.com/")
	require.NotNil(t, resolved)
	assert.Equal(t, "https://cloudflare-ipfs.com/ipfs/QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG/1", *resolved)

	resolved = ResolveIpfs("https://old-gateway.io/ipfs/QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG", "https://cloudflare-ipfs.com")
	require.NotNil(t, resolved)
	assert.Equal(t, "https://cloudflare-ipfs.com/ipfs/QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG", *resolved)

	assert.Nil(t, ResolveIpfs("https://example.com/meta/1", "https://cloudflare-ipfs.com"))
}
