package config

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Host identity and license lookup. Both are optional: a host without
// either still updates, it just sends fewer headers.

var licensePattern = regexp.MustCompile(`(?i)^[a-z0-9+/]+=*$`)

// hostID reads the host's identity token, preferring the boot-time
// hostid file over the machine id.
func hostID(root string) string {
	for _, path := range []string{"etc/hostid", "etc/machine-id"} {
		data, err := os.ReadFile(filepath.Join(root, path))
		if err != nil {
			continue
		}
		id := strings.TrimRight(string(data), "\x00\n")
		if id != "" {
			return id
		}
	}
	return ""
}

// licenseToken reads the installed license blob. Content that is not a
// valid base64 header value is discarded rather than sent.
func licenseToken(root string) string {
	data, err := os.ReadFile(filepath.Join(root, "data/license"))
	if err != nil {
		return ""
	}
	token := strings.TrimSpace(string(data))
	if !licensePattern.MatchString(token) {
		return ""
	}
	return token
}
