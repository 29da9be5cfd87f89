// Package devicecheck validates network device state over SSH: software
// version and uptime, OSPF adjacency health, and ACL hit counters. Command
// output is parsed from standard IOS show commands, so the checks run against
// anything that speaks that dialect.
package devicecheck
