package vfs

// resolvConf and hostsFile are the small static buffers a backend service
// expects to find at the standard resolver paths.
var resolvConf = []byte("nameserver 127.0.0.1\nnameserver 10.0.0.53\noptions ndots:0\n")

var hostsFile = []byte("127.0.0.1 localhost\n::1 localhost\n")

// procSelfCmdline and procSelfStatus back a minimal process-info tree —
// just enough that a guest probing "is this really a process" does not
// immediately fail.
var procSelfCmdline = []byte("warpgrid-guest\x00")
var procSelfStatus = []byte("Name:\twarpgrid-guest\nState:\tR (running)\nPid:\t1\n")

// zoneinfoSet is the base set of timezones served under
// /usr/share/zoneinfo/. spec.md leaves the exact size of this "base set"
// unspecified; this is the concrete resolution (recorded in DESIGN.md).
var zoneinfoSet = map[string][]byte{
	"UTC":                 {0x54, 0x5A, 0x69, 0x66}, // "TZif" magic, trimmed stand-in payload
	"America/New_York":    {0x54, 0x5A, 0x69, 0x66},
	"Europe/London":       {0x54, 0x5A, 0x69, 0x66},
	"Asia/Tokyo":          {0x54, 0x5A, 0x69, 0x66},
	"America/Los_Angeles": {0x54, 0x5A, 0x69, 0x66},
}

// DefaultMap builds the virtual file map a backend service expects out of
// the box (spec.md §4.1 "Defaults"):
//   - /dev/null absorbs
//   - /dev/urandom and /dev/random generate fresh bytes
//   - /etc/resolv.conf and /etc/hosts serve small static buffers
//   - /proc/self/* serves a minimal static process-info tree
//   - /usr/share/zoneinfo/ is prefix-mapped over a base set of timezones
func DefaultMap() *Map {
	b := NewBuilder()
	b.Absorb("/dev/null")
	b.Random("/dev/urandom")
	b.Random("/dev/random")
	b.Static("/etc/resolv.conf", resolvConf)
	b.Static("/etc/hosts", hostsFile)
	b.Static("/proc/self/cmdline", procSelfCmdline)
	b.Static("/proc/self/status", procSelfStatus)
	b.Prefix("/usr/share/zoneinfo", func(remainder string) ([]byte, bool) {
		data, ok := zoneinfoSet[remainder]
		return data, ok
	})
	return b.Build()
}
