// Copyright (c) 2025 The Vision developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package p2p implements the peer protocol: the signed HELLO handshake,
// headers-first block sync, compact-block relay, per-IP rate limiting,
// and the private/local address guardrails applied before dialing or
// accepting a peer.
package p2p

import (
	"net"
	"os"
)

// IsPrivateIP reports whether ip falls within an RFC1918, loopback,
// link-local, multicast, or other reserved range.
func IsPrivateIP(ip net.IP) bool {
	if ip4 := ip.To4(); ip4 != nil {
		return isPrivateIPv4(ip4)
	}
	return ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() ||
		ip.IsMulticast() || ip.IsUnspecified()
}

func isPrivateIPv4(ip4 net.IP) bool {
	switch {
	case ip4[0] == 10:
		return true
	case ip4[0] == 172 && ip4[1] >= 16 && ip4[1] <= 31:
		return true
	case ip4[0] == 192 && ip4[1] == 168:
		return true
	case ip4[0] == 127:
		return true
	case ip4[0] == 169 && ip4[1] == 254:
		return true
	case ip4[0] >= 224:
		return true // multicast and reserved
	case ip4[0] == 0:
		return true
	default:
		return false
	}
}

// AllowPrivatePeers reports whether VISION_ALLOW_PRIVATE_PEERS is set,
// letting an operator opt into dialing RFC1918/loopback addresses for
// local testing.
func AllowPrivatePeers() bool {
	return os.Getenv("VISION_ALLOW_PRIVATE_PEERS") != ""
}

// LocalTestMode reports whether VISION_LOCAL_TEST is set, which restricts
// dialing to loopback/RFC1918 addresses only, for fully local multi-node
// test setups where every peer is expected to be on the same box or LAN.
func LocalTestMode() bool {
	return os.Getenv("VISION_LOCAL_TEST") != ""
}

// IsLocalAllowed reports whether ip should be allowed as a peer address
// given the current environment flags. In local-test mode this is
// inverted from the normal guardrail: only private/loopback addresses
// are allowed, and public addresses are rejected, since a local test
// network has no business dialing out to the public internet.
func IsLocalAllowed(ip net.IP) bool {
	if LocalTestMode() {
		return IsPrivateIP(ip)
	}
	if !IsPrivateIP(ip) {
		return true
	}
	return AllowPrivatePeers()
}

// localP2PPort returns the port this node listens on for P2P traffic,
// from VISION_P2P_PORT, falling back to VISION_PUBLIC_PORT.
func localP2PPort() string {
	if port := os.Getenv("VISION_P2P_PORT"); port != "" {
		return port
	}
	return os.Getenv("VISION_PUBLIC_PORT")
}

// localInterfaceIPs returns every IP bound to a local interface. An
// enumeration failure returns nil; the self-connect guard then fails
// open, which only risks one wasted dial.
func localInterfaceIPs() []net.IP {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return nil
	}
	out := make([]net.IP, 0, len(addrs))
	for _, a := range addrs {
		if ipNet, ok := a.(*net.IPNet); ok {
			out = append(out, ipNet.IP)
		}
	}
	return out
}

// IsSelfDial reports whether dialing host:port would connect this node
// to itself: the port matches the local P2P listen port and the host
// resolves to an IP bound to a local interface.
func IsSelfDial(host, port string) bool {
	localPort := localP2PPort()
	if localPort == "" || port != localPort {
		return false
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	if ip.IsLoopback() {
		return true
	}
	for _, local := range localInterfaceIPs() {
		if local.Equal(ip) {
			return true
		}
	}
	return false
}

// AllowDial combines every dial guardrail: the self-connect kill and
// the private/local range rules under the current environment flags.
func AllowDial(host, port string) bool {
	if IsSelfDial(host, port) {
		return false
	}
	ip := net.ParseIP(host)
	if ip == nil {
		// Hostnames resolve later; range checks apply post-resolution.
		return true
	}
	return IsLocalAllowed(ip)
}
