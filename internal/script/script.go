// Package script renders the bash script that runs inside the distribution
// container: it installs the kernel debug symbols, runs dwarf2json against the
// debug vmlinux and compresses the resulting symbol file.
package script

import (
	"bytes"
	"fmt"
	"text/template"

	"symgen/internal/distro"
)

// Dwarf2JSONURL is the pinned dwarf2json release fetched inside the container.
const Dwarf2JSONURL = "https://github.com/volatilityfoundation/dwarf2json/releases/download/v0.8.0/dwarf2json-linux-amd64"

type scriptData struct {
	Title      string
	Kernel     string
	Version    string
	Codename   string
	Prereqs    string
	Candidates []string
	Companion  string
	Vmlinux    string
	SymbolName string
	Dwarf2JSON string
}

// layout is the per-distribution part of a script.
type layout struct {
	packager   string
	repo       string
	prereqs    string
	candidates []string
	companion  string
	vmlinux    string
}

// Synthesize returns the provisioning script for kernel on release r. It is
// deterministic and performs no I/O.
func Synthesize(kernel string, r distro.Release) (string, error) {
	f := distro.Lookup(r.Distro)
	l, err := layoutFor(f, kernel)
	if err != nil {
		return "", err
	}

	title := r.Distro.DisplayName() + " " + r.Version
	if r.Codename != "" {
		title += " (" + r.Codename + ")"
	}
	data := scriptData{
		Title:      title,
		Kernel:     kernel,
		Version:    r.Version,
		Codename:   r.Codename,
		Prereqs:    l.prereqs,
		Candidates: l.candidates,
		Companion:  l.companion,
		Vmlinux:    l.vmlinux,
		SymbolName: r.SymbolName(kernel),
		Dwarf2JSON: Dwarf2JSONURL,
	}
	return executeTemplate(string(r.Distro), headerTemplate+l.packager+l.repo+bodyTemplate, data)
}

func layoutFor(f distro.Family, kernel string) (layout, error) {
	rpmVmlinux := "/usr/lib/debug/lib/modules/" + kernel + "/vmlinux"
	rpmCandidates := []string{
		"kernel-debuginfo-" + kernel,
		"kernel-debuginfo-common-x86_64-" + kernel + " kernel-debuginfo-" + kernel,
	}

	switch f.Shape {
	case distro.ShapeApt:
		l := layout{
			packager: aptPackager,
			vmlinux:  "/usr/lib/debug/boot/vmlinux-" + kernel,
		}
		if f.Distro == distro.Ubuntu {
			l.repo = ubuntuRepo
			l.prereqs = "wget xz-utils ca-certificates findutils ubuntu-dbgsym-keyring"
			l.candidates = []string{
				"linux-image-" + kernel + "-dbgsym",
				"linux-image-unsigned-" + kernel + "-dbgsym",
			}
			l.companion = "linux-modules-" + kernel
		} else {
			l.repo = debianRepo
			l.prereqs = "wget xz-utils ca-certificates findutils"
			l.candidates = []string{
				"linux-image-" + kernel + "-dbg",
				"linux-image-" + kernel + "-unsigned-dbg",
			}
			l.companion = "linux-image-" + kernel
		}
		return l, nil
	case distro.ShapeFedora:
		return layout{
			packager:   dnfPackager,
			repo:       fedoraRepo,
			prereqs:    "wget xz findutils dnf-plugins-core",
			candidates: rpmCandidates,
			companion:  "kernel-core-" + kernel,
			vmlinux:    rpmVmlinux,
		}, nil
	case distro.ShapeRHEL:
		return layout{
			packager:   yumPackager,
			repo:       rhelRepo,
			prereqs:    "wget xz findutils",
			candidates: rpmCandidates,
			companion:  "kernel-core-" + kernel,
			vmlinux:    rpmVmlinux,
		}, nil
	case distro.ShapeOracle:
		l := layout{
			packager:   dnfPackager,
			repo:       oracleRepo,
			prereqs:    "wget xz findutils dnf-plugins-core",
			candidates: rpmCandidates,
			companion:  "kernel-core-" + kernel,
			vmlinux:    rpmVmlinux,
		}
		if distro.IsUEK(kernel) {
			l.candidates = []string{"kernel-uek-debuginfo-" + kernel}
			l.companion = "kernel-uek-" + kernel
		}
		return l, nil
	}
	return layout{}, fmt.Errorf("no script layout for distribution %q", f.Distro)
}

func executeTemplate(name, tmplStr string, data interface{}) (string, error) {
	tmpl, err := template.New(name).Delims("[[", "]]").Parse(tmplStr)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
