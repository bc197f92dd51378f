// Package banner recognises the kernel version and distribution release in a
// Linux boot banner, the "Linux version ..." line from /proc/version or a
// memory image.
package banner

import (
	"fmt"
	"regexp"
	"strings"

	"symgen/internal/distro"
)

// Command is the program name used in suggested commands.
const Command = "symgen"

// genericPatterns apply to any banner once the family cascade is exhausted.
var genericPatterns = []*regexp.Regexp{
	regexp.MustCompile(`Linux version (\d+\.\d+\.\d+\S*)`),
	regexp.MustCompile(`(\d+\.\d+\.\d+-\d+-[a-z]+)`),
}

// Result is what could be recovered from a banner. Distro and DistroVersion
// are empty when they could not be determined.
type Result struct {
	KernelVersion    string        `json:"kernel_version"`
	Distro           distro.Distro `json:"distro,omitempty"`
	DistroVersion    string        `json:"distro_version,omitempty"`
	SuggestedCommand string        `json:"suggested_command,omitempty"`
}

// Complete reports whether the banner resolved to a full generation target.
func (r Result) Complete() bool {
	return r.Distro != "" && r.DistroVersion != ""
}

// Parse extracts the kernel version and, where possible, the distribution and
// its release from banner. It returns false when no kernel version can be
// found.
func Parse(banner string) (Result, bool) {
	if strings.TrimSpace(banner) == "" {
		return Result{}, false
	}
	lower := strings.ToLower(banner)

	family, detected := detect(lower)

	var (
		kernel string
		ok     bool
	)
	if detected {
		kernel, ok = family.ExtractKernel(banner)
	}
	if !ok {
		kernel, ok = extractGeneric(banner)
	}
	if !ok {
		return Result{}, false
	}

	res := Result{KernelVersion: kernel}
	if !detected {
		return res, true
	}
	res.Distro = family.Distro
	if v, ok := family.InferVersion(lower, kernel); ok {
		res.DistroVersion = v
		res.SuggestedCommand = fmt.Sprintf("%s generate -k %s -d %s -V %s", Command, kernel, strings.ToLower(string(res.Distro)), v)
	}
	return res, true
}

// detect returns the first family, in table order, whose markers appear in
// the banner. The same family drives both extraction and version resolution.
func detect(lower string) (distro.Family, bool) {
	for _, f := range distro.Families() {
		if f.Detect(lower) {
			return f, true
		}
	}
	return distro.Family{}, false
}

func extractGeneric(banner string) (string, bool) {
	for _, re := range genericPatterns {
		if m := re.FindStringSubmatch(banner); m != nil {
			return m[1], true
		}
	}
	return "", false
}
