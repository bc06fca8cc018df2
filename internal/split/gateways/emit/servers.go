package emit

import (
	"bufio"
	"os"
	"strings"
)

// Default upstream DNS servers, used when the corresponding server list file
// is absent or empty.
var (
	DefaultDomesticDNS = []string{"https://doh.pub/dns-query", "https://dns.alidns.com/dns-query"}
	DefaultForeignDNS  = []string{"https://1.1.1.1/dns-query", "https://8.8.8.8/dns-query"}
)

// ReadServers reads a newline-delimited DNS server list, skipping blanks and
// # comments. A missing or empty file yields the defaults.
func ReadServers(path string, defaults []string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaults, nil
		}
		return nil, err
	}
	defer f.Close()

	var servers []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		servers = append(servers, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(servers) == 0 {
		return defaults, nil
	}
	return servers, nil
}
