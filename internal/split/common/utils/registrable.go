package utils

import "golang.org/x/net/publicsuffix"

// RegistrableDomain collapses a name to its eTLD+1 (e.g. www.example.co.uk
// becomes example.co.uk). QuanX host-suffix rules match per registrable
// domain, so emitting anything deeper just duplicates coverage.
func RegistrableDomain(name string) string {
	name = CanonicalDNSName(name)
	reg, err := publicsuffix.EffectiveTLDPlusOne(name)
	if err != nil {
		reg = name // fall back to the original name when the suffix list can't place it
	}
	return reg
}
