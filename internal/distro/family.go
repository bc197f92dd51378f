package distro

import (
	"regexp"
	"strings"
)

// Shape selects which provisioning script layout a family uses.
type Shape int

const (
	// ShapeApt is the Debian/Ubuntu apt layout.
	ShapeApt Shape = iota + 1
	// ShapeFedora is the plain dnf layout with the stock debuginfo repos.
	ShapeFedora
	// ShapeRHEL is the yum/dnf layout shared by RHEL and its rebuilds.
	ShapeRHEL
	// ShapeOracle is dnf with a hand-written debuginfo repository.
	ShapeOracle
)

// Marker maps an explicit banner marker to a distribution version.
type Marker struct {
	Pattern *regexp.Regexp
	Version string
}

// KernelPrefix maps a kernel version prefix to the release that shipped it.
type KernelPrefix struct {
	Prefix  string
	Version string
}

// Family is everything that varies per distribution: how to spot it in a
// banner, how to pull the kernel version out, how to infer the release, which
// script to run and how to name the result.
type Family struct {
	Distro Distro
	Shape  Shape

	// Label is the file-name-safe name used in artifact names and scripts.
	Label string

	keywords []string
	// KernelPatterns is tried in order; the first submatch wins.
	KernelPatterns []*regexp.Regexp
	Markers        []Marker
	Prefixes       []KernelPrefix
	// ReleaseTag extracts the release from the kernel string itself (RPM
	// families only).
	ReleaseTag *regexp.Regexp

	useCodename bool
}

var (
	aptDebianPatterns = []*regexp.Regexp{
		regexp.MustCompile(`Linux version (\d+\.\d+\.\d+-\d+-(?:[a-z]+-)?amd64)`),
		regexp.MustCompile(`(\d+\.\d+\.\d+-\d+-(?:[a-z]+-)?amd64)`),
	}
	aptUbuntuPatterns = []*regexp.Regexp{
		regexp.MustCompile(`Linux version (\d+\.\d+\.\d+-\d+-[a-z][a-z0-9]*)`),
		regexp.MustCompile(`(\d+\.\d+\.\d+-\d+-generic)`),
	}
	fedoraPatterns = []*regexp.Regexp{
		regexp.MustCompile(`Linux version (\d+\.\d+\.\d+-\d+\.fc\d+\.[a-z0-9_]+)`),
		regexp.MustCompile(`(\d+\.\d+\.\d+-\d+\.fc\d+\.[a-z0-9_]+)`),
	}
	elPatterns = []*regexp.Regexp{
		regexp.MustCompile(`Linux version (\d+\.\d+\.\d+-[\d.]+\.el\d+[a-z0-9_.]*)`),
		regexp.MustCompile(`(\d+\.\d+\.\d+-[\d.]+\.el\d+[a-z0-9_.]*)`),
		regexp.MustCompile(`(\d+\.\d+\.\d+-[\d.]+\.el\d+uek[a-z0-9_.]*)`),
	}

	fedoraTag = regexp.MustCompile(`\.fc(\d+)\.`)
	elTag     = regexp.MustCompile(`\.el(\d+)`)
)

func rhelFamily(d Distro, label string, keywords ...string) Family {
	return Family{
		Distro:         d,
		Shape:          ShapeRHEL,
		Label:          label,
		keywords:       keywords,
		KernelPatterns: elPatterns,
		ReleaseTag:     elTag,
	}
}

// families is in detection precedence order. Derivatives come before the
// generic RHEL entry because their banners usually also carry RHEL markers.
var families = []Family{
	{
		Distro:         Ubuntu,
		Shape:          ShapeApt,
		Label:          "Ubuntu",
		keywords:       []string{"ubuntu"},
		KernelPatterns: aptUbuntuPatterns,
		Markers: []Marker{
			{regexp.MustCompile(`~24\.04|noble`), "24.04"},
			{regexp.MustCompile(`~22\.04|jammy`), "22.04"},
			{regexp.MustCompile(`~20\.04|focal`), "20.04"},
		},
		Prefixes: []KernelPrefix{
			{"5.4.", "20.04"},
			{"5.15.", "22.04"},
			{"5.19.", "22.04"},
			{"6.", "24.04"},
		},
		useCodename: true,
	},
	{
		Distro:         Debian,
		Shape:          ShapeApt,
		Label:          "Debian",
		keywords:       []string{"debian"},
		KernelPatterns: aptDebianPatterns,
		Markers: []Marker{
			// "Debian 10.2.1-6" is a compiler version, not a release.
			{regexp.MustCompile(`buster|debian 10(?:[^.\d]|$)`), "10"},
			{regexp.MustCompile(`bullseye|debian 11(?:[^.\d]|$)`), "11"},
			{regexp.MustCompile(`bookworm|debian 12(?:[^.\d]|$)`), "12"},
		},
		Prefixes: []KernelPrefix{
			{"4.19.", "10"},
			{"5.10.", "11"},
			{"6.1.", "12"},
		},
		useCodename: true,
	},
	{
		Distro:         Fedora,
		Shape:          ShapeFedora,
		Label:          "Fedora",
		keywords:       []string{"fedora", ".fc"},
		KernelPatterns: fedoraPatterns,
		ReleaseTag:     fedoraTag,
	},
	rhelFamily(CentOS, "CentOS", "centos"),
	rhelFamily(Rocky, "Rocky", "rocky"),
	rhelFamily(Alma, "Alma", "alma"),
	func() Family {
		f := rhelFamily(Oracle, "Oracle", "oracle", ".ol", "uek")
		f.Shape = ShapeOracle
		return f
	}(),
	rhelFamily(RHEL, "RHEL", "red hat", ".el"),
}

// Families returns the family table in detection precedence order.
func Families() []Family {
	out := make([]Family, len(families))
	copy(out, families)
	return out
}

// Lookup returns the family record for d. Every catalog distro has one.
func Lookup(d Distro) Family {
	for _, f := range families {
		if f.Distro == d {
			return f
		}
	}
	return Family{Distro: d, Label: string(d)}
}

// Detect reports whether the lower-cased banner text carries this family's
// markers.
func (f Family) Detect(lower string) bool {
	for _, k := range f.keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// ExtractKernel runs the family's kernel pattern cascade over banner.
func (f Family) ExtractKernel(banner string) (string, bool) {
	for _, re := range f.KernelPatterns {
		if m := re.FindStringSubmatch(banner); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// InferVersion resolves the distribution release from explicit markers in the
// lower-cased banner, then from the kernel version itself.
func (f Family) InferVersion(lower, kernel string) (string, bool) {
	if f.ReleaseTag != nil {
		if m := f.ReleaseTag.FindStringSubmatch(kernel); m != nil {
			return m[1], true
		}
		return "", false
	}
	for _, m := range f.Markers {
		if m.Pattern.MatchString(lower) {
			return m.Version, true
		}
	}
	base, _, _ := strings.Cut(kernel, "-")
	base += "."
	for _, p := range f.Prefixes {
		if strings.HasPrefix(base, p.Prefix) {
			return p.Version, true
		}
	}
	return "", false
}

// IsUEK reports whether kernel is an Oracle Unbreakable Enterprise Kernel.
func IsUEK(kernel string) bool {
	return strings.Contains(kernel, "uek")
}

func (f Family) artifactPrefix(r Release) string {
	if f.useCodename && r.Codename != "" {
		return f.Label + "_" + r.Codename
	}
	return f.Label + "_" + r.Version
}
