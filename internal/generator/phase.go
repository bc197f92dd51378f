package generator

import "strings"

// Phase is the coarse stage a run is in.
type Phase string

const (
	PhasePullingImage      Phase = "pulling_image"
	PhaseDownloadingKernel Phase = "downloading_kernel"
	PhaseGeneratingSymbol  Phase = "generating_symbol"
)

// phaseMarkers maps the provisioning script's progress markers to phases.
// Entries are matched by prefix, in order.
var phaseMarkers = []struct {
	prefix  string
	phase   Phase
	message string
}{
	{">>> Updating package lists", PhaseDownloadingKernel, "Updating package lists..."},
	{">>> Installing required packages", PhaseDownloadingKernel, "Installing required packages..."},
	{">>> Adding ddebs repository", PhaseDownloadingKernel, "Adding debug symbol repository..."},
	{">>> Adding debug repository", PhaseDownloadingKernel, "Adding debug symbol repository..."},
	{">>> Adding Oracle Linux debuginfo repository", PhaseDownloadingKernel, "Adding debug symbol repository..."},
	{">>> Enabling debuginfo repositories", PhaseDownloadingKernel, "Enabling debug symbol repositories..."},
	{">>> Installing kernel debug symbols", PhaseDownloadingKernel, "Downloading kernel debug symbols (this may take a while)..."},
	{">>> Looking for vmlinux", PhaseGeneratingSymbol, "Locating kernel debug information..."},
	{">>> Found vmlinux", PhaseGeneratingSymbol, "Found kernel debug symbols..."},
	{">>> Setting up dwarf2json", PhaseGeneratingSymbol, "Setting up symbol generator..."},
	{">>> Generating Volatility3 symbol file", PhaseGeneratingSymbol, "Generating symbol file (this may take a while)..."},
	{">>> Compressing symbol file", PhaseGeneratingSymbol, "Compressing symbol file..."},
	{"=== Symbol generation completed", PhaseGeneratingSymbol, "Symbol generation completed, finalizing..."},
}

// PhaseOf returns the phase and friendly message for a trimmed container
// output line, or false when the line is not a known marker.
func PhaseOf(line string) (Phase, string, bool) {
	for _, m := range phaseMarkers {
		if strings.HasPrefix(line, m.prefix) {
			return m.phase, m.message, true
		}
	}
	return "", "", false
}
