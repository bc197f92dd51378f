package script

// Templates use [[ ]] delimiters, so the shell code below sticks to [ ].

const headerTemplate = `#!/bin/bash
set -e

echo "=== Starting symbol generation for [[.Title]] kernel [[.Kernel]] ==="

# The output directory is the bind-mounted working directory.
OUTPUT_DIR="$PWD"
`

const aptPackager = `
export DEBIAN_FRONTEND=noninteractive

pkg_refresh() {
    apt-get update -qq
}

pkg_install() {
    apt-get install -y -qq "$@"
}

echo ">>> Updating package lists..."
pkg_refresh

echo ">>> Installing required packages..."
pkg_install [[.Prereqs]]
`

const dnfPackager = `
pkg_refresh() {
    dnf -y -q makecache
}

pkg_install() {
    dnf -y -q install "$@"
}

echo ">>> Updating package lists..."
pkg_refresh

echo ">>> Installing required packages..."
pkg_install [[.Prereqs]]
`

const yumPackager = `
if command -v dnf >/dev/null 2>&1; then
    PKG=dnf
else
    PKG=yum
fi

pkg_refresh() {
    "$PKG" -y -q makecache
}

pkg_install() {
    "$PKG" -y -q install "$@"
}

echo ">>> Updating package lists..."
pkg_refresh

echo ">>> Installing required packages..."
pkg_install [[.Prereqs]]
`

const ubuntuRepo = `
echo ">>> Adding ddebs repository..."
cat > /etc/apt/sources.list.d/ddebs.sources << 'SOURCES'
Types: deb
URIs: http://ddebs.ubuntu.com/
Suites: [[.Codename]] [[.Codename]]-updates [[.Codename]]-proposed
Components: main restricted universe multiverse
Signed-by: /usr/share/keyrings/ubuntu-dbgsym-keyring.gpg
SOURCES

echo ">>> Adding proposed repository..."
cat > /etc/apt/sources.list.d/proposed.sources << 'SOURCES'
Types: deb
URIs: http://archive.ubuntu.com/ubuntu/
Suites: [[.Codename]]-proposed
Components: main restricted universe multiverse
Signed-by: /usr/share/keyrings/ubuntu-archive-keyring.gpg
SOURCES
`

const debianRepo = `
echo ">>> Adding debug repository..."
echo "deb http://deb.debian.org/debian-debug [[.Codename]]-debug main" > /etc/apt/sources.list.d/debug.list
`

const fedoraRepo = `
echo ">>> Enabling debuginfo repositories..."
dnf config-manager --set-enabled fedora-debuginfo updates-debuginfo || true
`

const rhelRepo = `
echo ">>> Enabling debuginfo repositories..."
pkg_install yum-utils || pkg_install dnf-plugins-core || true
# RHEL UBI and Rocky name their repos *-debug*, CentOS and Alma *debuginfo*.
for pattern in '*-debug*' '*debuginfo*'; do
    if [ "$PKG" = "dnf" ]; then
        dnf config-manager --set-enabled "$pattern" || echo ">>> No repository matches $pattern"
    elif command -v yum-config-manager >/dev/null 2>&1; then
        yum-config-manager --enable "$pattern" || echo ">>> No repository matches $pattern"
    fi
done
if command -v debuginfo-install >/dev/null 2>&1; then
    echo ">>> Running debuginfo-install for kernel-[[.Kernel]]..."
    debuginfo-install -y kernel-[[.Kernel]] || echo ">>> debuginfo-install failed, trying packages directly..."
fi
`

const oracleRepo = `
echo ">>> Adding Oracle Linux debuginfo repository..."
cat > /etc/yum.repos.d/ol_debuginfo.repo << 'REPO'
[ol_debuginfo]
name=Oracle Linux [[.Version]] Debuginfo
baseurl=https://oss.oracle.com/ol[[.Version]]/debuginfo/
gpgkey=file:///etc/pki/rpm-gpg/RPM-GPG-KEY-oracle
gpgcheck=1
enabled=1
REPO
`

const bodyTemplate = `
echo ">>> Refreshing repository metadata..."
pkg_refresh

echo ">>> Installing kernel debug symbols for [[.Kernel]]..."
DEBUG_INSTALLED=0
[[- range .Candidates]]
if [ "$DEBUG_INSTALLED" -eq 0 ]; then
    echo ">>> Trying [[.]]..."
    if pkg_install [[.]]; then
        DEBUG_INSTALLED=1
    fi
fi
[[- end]]
if [ "$DEBUG_INSTALLED" -eq 0 ]; then
    echo "ERROR: Could not find/install debug symbols for kernel [[.Kernel]]"
    exit 1
fi

echo ">>> Installing [[.Companion]] for System.map..."
pkg_install [[.Companion]] || echo ">>> [[.Companion]] not available, continuing..."

echo ">>> Looking for vmlinux..."
VMLINUX="[[.Vmlinux]]"
if [ ! -f "$VMLINUX" ]; then
    VMLINUX=$(find /usr/lib/debug -name "vmlinux*" -path "*[[.Kernel]]*" -type f 2>/dev/null | head -1)
fi
if [ -z "$VMLINUX" ] || [ ! -f "$VMLINUX" ]; then
    echo "ERROR: vmlinux not found in debug package"
    find /usr/lib/debug -name "vmlinux*" -type f 2>/dev/null || true
    exit 1
fi
echo ">>> Found vmlinux: $VMLINUX"

echo ">>> Setting up dwarf2json..."
wget -q "[[.Dwarf2JSON]]" -O /usr/local/bin/dwarf2json
chmod +x /usr/local/bin/dwarf2json

SYSTEM_MAP=""
for candidate in "/boot/System.map-[[.Kernel]]" "/lib/modules/[[.Kernel]]/System.map"; do
    if [ -f "$candidate" ]; then
        SYSTEM_MAP="$candidate"
        break
    fi
done
if [ -n "$SYSTEM_MAP" ]; then
    echo ">>> Found System.map: $SYSTEM_MAP"
else
    echo ">>> No System.map found, continuing without it..."
fi

echo ">>> Generating Volatility3 symbol file..."
SYMBOL_FILE="$OUTPUT_DIR/[[.SymbolName]]"
if [ -n "$SYSTEM_MAP" ]; then
    /usr/local/bin/dwarf2json linux --elf "$VMLINUX" --system-map "$SYSTEM_MAP" > "$SYMBOL_FILE"
else
    /usr/local/bin/dwarf2json linux --elf "$VMLINUX" > "$SYMBOL_FILE"
fi

echo ">>> Compressing symbol file..."
xz -9 -f "$SYMBOL_FILE"

if [ -n "${SYMGEN_HOST_UID:-}" ] && [ -n "${SYMGEN_HOST_GID:-}" ]; then
    chown "$SYMGEN_HOST_UID:$SYMGEN_HOST_GID" "$SYMBOL_FILE.xz" || true
fi

echo "=== Symbol generation completed successfully ==="
ls -la "$OUTPUT_DIR"
`
