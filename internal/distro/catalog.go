package distro

import "fmt"

// Release is one supported distribution release and the container image used
// to build symbols for it.
type Release struct {
	Distro   Distro `json:"-"`
	Version  string `json:"version"`
	Codename string `json:"codename,omitempty"`
	Image    string `json:"docker_image"`
}

// catalog is built once and never mutated. Each slice is in release order.
var catalog = map[Distro][]Release{
	Ubuntu: {
		{Distro: Ubuntu, Version: "20.04", Codename: "focal", Image: "ubuntu:20.04"},
		{Distro: Ubuntu, Version: "22.04", Codename: "jammy", Image: "ubuntu:22.04"},
		{Distro: Ubuntu, Version: "24.04", Codename: "noble", Image: "ubuntu:24.04"},
	},
	Debian: {
		{Distro: Debian, Version: "10", Codename: "buster", Image: "debian:10"},
		{Distro: Debian, Version: "11", Codename: "bullseye", Image: "debian:11"},
		{Distro: Debian, Version: "12", Codename: "bookworm", Image: "debian:12"},
	},
	Fedora: {
		{Distro: Fedora, Version: "38", Image: "fedora:38"},
		{Distro: Fedora, Version: "39", Image: "fedora:39"},
		{Distro: Fedora, Version: "40", Image: "fedora:40"},
	},
	CentOS: {
		{Distro: CentOS, Version: "7", Image: "centos:7"},
		{Distro: CentOS, Version: "8", Image: "quay.io/centos/centos:stream8"},
		{Distro: CentOS, Version: "9", Image: "quay.io/centos/centos:stream9"},
	},
	RHEL: {
		{Distro: RHEL, Version: "8", Image: "redhat/ubi8:latest"},
		{Distro: RHEL, Version: "9", Image: "redhat/ubi9:latest"},
	},
	Oracle: {
		{Distro: Oracle, Version: "8", Image: "oraclelinux:8"},
		{Distro: Oracle, Version: "9", Image: "oraclelinux:9"},
	},
	Rocky: {
		{Distro: Rocky, Version: "8", Image: "rockylinux:8"},
		{Distro: Rocky, Version: "9", Image: "rockylinux:9"},
	},
	Alma: {
		{Distro: Alma, Version: "8", Image: "almalinux:8"},
		{Distro: Alma, Version: "9", Image: "almalinux:9"},
	},
}

// Versions returns the supported releases of d in release order.
func Versions(d Distro) []Release {
	releases := catalog[d]
	out := make([]Release, len(releases))
	copy(out, releases)
	return out
}

// Find looks up the release of d whose version is exactly version.
func Find(d Distro, version string) (Release, bool) {
	for _, r := range catalog[d] {
		if r.Version == version {
			return r, true
		}
	}
	return Release{}, false
}

// ArtifactPrefix is the distribution part of the symbol file name, e.g.
// "Ubuntu_jammy" or "Rocky_9".
func (r Release) ArtifactPrefix() string {
	return Lookup(r.Distro).artifactPrefix(r)
}

// SymbolName is the uncompressed symbol file the build writes before
// compression.
func (r Release) SymbolName(kernel string) string {
	return fmt.Sprintf("%s_%s.json", r.ArtifactPrefix(), kernel)
}

// ArtifactName is the final compressed symbol file name.
func (r Release) ArtifactName(kernel string) string {
	return r.SymbolName(kernel) + ".xz"
}
