// Package distro holds the static table of supported distributions, their
// releases and container images, and the per-family data used to recognise a
// kernel and build its symbols.
package distro

import "strings"

// Distro identifies a supported Linux distribution.
type Distro string

const (
	Ubuntu Distro = "ubuntu"
	Debian Distro = "debian"
	Fedora Distro = "fedora"
	CentOS Distro = "centos"
	RHEL   Distro = "rhel"
	Oracle Distro = "oracle"
	Rocky  Distro = "rocky"
	Alma   Distro = "alma"
)

var all = []Distro{Ubuntu, Debian, Fedora, CentOS, RHEL, Oracle, Rocky, Alma}

var aliases = map[string]Distro{
	"ubuntu":      Ubuntu,
	"debian":      Debian,
	"fedora":      Fedora,
	"centos":      CentOS,
	"rhel":        RHEL,
	"redhat":      RHEL,
	"oracle":      Oracle,
	"oraclelinux": Oracle,
	"ol":          Oracle,
	"rocky":       Rocky,
	"rockylinux":  Rocky,
	"alma":        Alma,
	"almalinux":   Alma,
}

// All returns every supported distribution in catalog order.
func All() []Distro {
	out := make([]Distro, len(all))
	copy(out, all)
	return out
}

// Parse resolves a user supplied distribution name. Matching is
// case-insensitive and accepts common aliases such as "redhat" or "almalinux".
func Parse(s string) (Distro, bool) {
	d, ok := aliases[strings.ToLower(strings.TrimSpace(s))]
	return d, ok
}

func (d Distro) String() string { return string(d) }

// DisplayName returns the human readable name of the distribution.
func (d Distro) DisplayName() string {
	switch d {
	case Ubuntu:
		return "Ubuntu"
	case Debian:
		return "Debian"
	case Fedora:
		return "Fedora"
	case CentOS:
		return "CentOS"
	case RHEL:
		return "RHEL"
	case Oracle:
		return "Oracle Linux"
	case Rocky:
		return "Rocky Linux"
	case Alma:
		return "AlmaLinux"
	}
	return string(d)
}
