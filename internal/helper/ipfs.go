package helper

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var cidRe = regexp.MustCompile("(Qm[1-9A-HJ-NP-Za-km-z]{44}.*$)")

func IsUrl(uri string) bool {
	u, err := url.Parse(uri)
	return err == nil && u.Scheme != "" && u.Host != ""
}

func IsIpfs(uri string) bool {
	if cidRe.MatchString(uri) {
		return true
	}

	if !IsUrl(uri) {
		return false
	}

	u, _ := url.Parse(uri)

	return u.Scheme == "ipfs"
}

// ResolveIpfs rewrites an ipfs uri to a fetchable gateway url.
// Returns nil when the uri does not reference ipfs content.
func ResolveIpfs(uri string, gateway string) *string {
	gateway = strings.TrimSuffix(gateway, "/")

	if strings.HasPrefix(uri, "ipfs://") {
		resolved := fmt.Sprintf("%s/ipfs/%s", gateway, uri[7:])
		return &resolved
	}

	parts := cidRe.FindStringSubmatch(uri)
	if len(parts) == 2 {
		resolved := fmt.Sprintf("%s/ipfs/%s", gateway, parts[1])
		return &resolved
	}

	return nil
}
