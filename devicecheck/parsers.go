package devicecheck

import (
	"bufio"
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// VersionInfo holds the fields extracted from "show version".
type VersionInfo struct {
	Version string
	Uptime  string
}

// Neighbor is one row of "show ip ospf neighbor".
type Neighbor struct {
	ID        string
	Priority  int
	State     string
	Address   string
	Interface string
}

// ACLEntry is one rule line of an access list, with its hit counter.
type ACLEntry struct {
	Sequence int
	Rule     string
	Matches  int
}

// AccessList is a named ACL and its rules.
type AccessList struct {
	Name    string
	Type    string
	Entries []ACLEntry
}

var (
	// ErrVersionNotFound indicates "show version" output missing the
	// expected header line.
	ErrVersionNotFound = errors.New("devicecheck: version line not found")

	versionRe = regexp.MustCompile(`(?i)Software.*Version\s+([^\s,]+)`)
	uptimeRe  = regexp.MustCompile(`(?i)uptime is\s+(.+)$`)

	// "1.1.1.1    1   FULL/DR    00:00:34    10.0.12.1    GigabitEthernet0/0"
	neighborRe = regexp.MustCompile(`^(\S+)\s+(\d+)\s+(\S+)\s+\S+\s+(\S+)\s+(\S+)\s*$`)

	aclHeaderRe = regexp.MustCompile(`^(Standard|Extended)\s+IP\s+access\s+list\s+(\S+)`)
	aclEntryRe  = regexp.MustCompile(`^(\d+)\s+(.+?)(?:\s+\((\d+)\s+match(?:es)?\))?$`)
)

// ParseVersion extracts the OS version and uptime from "show version".
func ParseVersion(output string) (VersionInfo, error) {
	var info VersionInfo
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if info.Version == "" {
			if m := versionRe.FindStringSubmatch(line); m != nil {
				info.Version = m[1]
			}
		}
		if info.Uptime == "" {
			if m := uptimeRe.FindStringSubmatch(line); m != nil {
				info.Uptime = strings.TrimSpace(m[1])
			}
		}
	}
	if info.Version == "" {
		return VersionInfo{}, ErrVersionNotFound
	}
	return info, nil
}

// ParseOSPFNeighbors parses the neighbor table from "show ip ospf neighbor".
// An empty table parses to an empty slice, not an error.
func ParseOSPFNeighbors(output string) []Neighbor {
	var neighbors []Neighbor
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "Neighbor ID") {
			continue
		}
		m := neighborRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		prio, _ := strconv.Atoi(m[2])
		neighbors = append(neighbors, Neighbor{
			ID:        m[1],
			Priority:  prio,
			State:     m[3],
			Address:   m[4],
			Interface: m[5],
		})
	}
	return neighbors
}

// HasFullAdjacency reports whether any neighbor reached a FULL designated or
// backup designated router adjacency.
func HasFullAdjacency(neighbors []Neighbor) bool {
	for _, n := range neighbors {
		if n.State == "FULL/DR" || n.State == "FULL/BDR" {
			return true
		}
	}
	return false
}

// ParseAccessLists parses "show access-lists" / "show ip access-lists"
// output into named lists with per-rule hit counters.
func ParseAccessLists(output string) []AccessList {
	var lists []AccessList
	var current *AccessList

	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if m := aclHeaderRe.FindStringSubmatch(line); m != nil {
			lists = append(lists, AccessList{Name: m[2], Type: strings.ToLower(m[1])})
			current = &lists[len(lists)-1]
			continue
		}
		if current == nil {
			continue
		}
		trimmed := strings.TrimSpace(line)
		m := aclEntryRe.FindStringSubmatch(trimmed)
		if m == nil {
			continue
		}
		seq, _ := strconv.Atoi(m[1])
		matches := 0
		if m[3] != "" {
			matches, _ = strconv.Atoi(m[3])
		}
		current.Entries = append(current.Entries, ACLEntry{
			Sequence: seq,
			Rule:     strings.TrimSpace(m[2]),
			Matches:  matches,
		})
	}
	return lists
}

// FindAccessList returns the list with the given name, if present.
func FindAccessList(lists []AccessList, name string) (AccessList, bool) {
	for _, l := range lists {
		if l.Name == name {
			return l, true
		}
	}
	return AccessList{}, false
}
