// Copyright 2017 DigitalOcean.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command rbrctl is a thin control-plane client for a running TRILL
// engine: it talks to the rbridgenl generic netlink family to set a
// bridge's local nickname and tree root, and to install or clear
// nickname-table entries.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/MichaelQQ/go-trill/rbridgenl"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cmd, args := os.Args[1], os.Args[2:]

	c, err := rbridgenl.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "rbrctl: %v\n", err)
		os.Exit(1)
	}
	defer c.Close()

	var runErr error
	switch cmd {
	case "set-nick":
		runErr = runSetNick(c, args)
	case "set-treeroot":
		runErr = runSetTreeRoot(c, args)
	case "set-node":
		runErr = runSetNode(c, args)
	case "clear-node":
		runErr = runClearNode(c, args)
	case "show":
		runErr = runShow(c, args)
	default:
		usage()
		os.Exit(2)
	}

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "rbrctl %s: %v\n", cmd, runErr)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: rbrctl <command> [flags]

commands:
  set-nick     -dev <ifindex> -nick <nickname>
  set-treeroot -dev <ifindex> -nick <nickname>
  set-node     -dev <ifindex> -nick <nickname> -adj <nick:snpa,...> [-root <nick>,...]
  clear-node   -dev <ifindex> -nick <nickname>
  show         -dev <ifindex> -nick <nickname>`)
}

func runSetNick(c *rbridgenl.Client, args []string) error {
	fs := flag.NewFlagSet("set-nick", flag.ExitOnError)
	dev := fs.Int("dev", 0, "bridge device ifindex")
	nick := fs.Uint("nick", 0, "local nickname")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return c.SetLocalNick(*dev, uint16(*nick))
}

func runSetTreeRoot(c *rbridgenl.Client, args []string) error {
	fs := flag.NewFlagSet("set-treeroot", flag.ExitOnError)
	dev := fs.Int("dev", 0, "bridge device ifindex")
	nick := fs.Uint("nick", 0, "tree root nickname")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return c.SetTreeRoot(*dev, uint16(*nick))
}

func runSetNode(c *rbridgenl.Client, args []string) error {
	fs := flag.NewFlagSet("set-node", flag.ExitOnError)
	dev := fs.Int("dev", 0, "bridge device ifindex")
	nick := fs.Uint("nick", 0, "nickname to publish")
	adj := fs.String("adj", "", "comma-separated nick:snpa adjacency list")
	root := fs.String("root", "", "comma-separated distribution tree root nicknames")
	if err := fs.Parse(args); err != nil {
		return err
	}

	adjacencies, err := parseAdjacencies(*adj)
	if err != nil {
		return err
	}
	roots, err := parseNicks(*root)
	if err != nil {
		return err
	}

	return c.SetNode(*dev, uint16(*nick), rbridgenl.NodeInfo{
		Adjacencies: adjacencies,
		DTRoots:     roots,
	})
}

func runClearNode(c *rbridgenl.Client, args []string) error {
	fs := flag.NewFlagSet("clear-node", flag.ExitOnError)
	dev := fs.Int("dev", 0, "bridge device ifindex")
	nick := fs.Uint("nick", 0, "nickname to clear")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return c.ClearNode(*dev, uint16(*nick))
}

func runShow(c *rbridgenl.Client, args []string) error {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	dev := fs.Int("dev", 0, "bridge device ifindex")
	nick := fs.Uint("nick", 0, "nickname to show")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ni, err := c.GetNode(*dev, uint16(*nick))
	if err != nil {
		return err
	}

	fmt.Printf("nickname %d:\n", *nick)
	for _, adj := range ni.Adjacencies {
		fmt.Printf("  adjacency nick=%d snpa=%x\n", adj.Nick, adj.SNPA)
	}
	for _, root := range ni.DTRoots {
		fmt.Printf("  tree root %d\n", root)
	}
	return nil
}

func parseNicks(s string) ([]uint16, error) {
	if s == "" {
		return nil, nil
	}
	var out []uint16
	for _, f := range splitNonEmpty(s, ',') {
		n, err := strconv.ParseUint(f, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("invalid nickname %q: %w", f, err)
		}
		out = append(out, uint16(n))
	}
	return out, nil
}

func parseAdjacencies(s string) ([]rbridgenl.Adjacency, error) {
	if s == "" {
		return nil, nil
	}
	var out []rbridgenl.Adjacency
	for _, f := range splitNonEmpty(s, ',') {
		nickStr, snpaStr, ok := splitPair(f, ':')
		if !ok {
			return nil, fmt.Errorf("invalid adjacency %q: want nick:snpa", f)
		}
		n, err := strconv.ParseUint(nickStr, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("invalid nickname %q: %w", nickStr, err)
		}
		snpa, err := parseSNPA(snpaStr)
		if err != nil {
			return nil, err
		}
		out = append(out, rbridgenl.Adjacency{Nick: uint16(n), SNPA: snpa})
	}
	return out, nil
}

func parseSNPA(s string) ([6]byte, error) {
	var mac [6]byte
	parts := splitNonEmpty(s, '-')
	if len(parts) != 6 {
		return mac, fmt.Errorf("invalid mac address %q", s)
	}
	for i, p := range parts {
		b, err := strconv.ParseUint(p, 16, 8)
		if err != nil {
			return mac, fmt.Errorf("invalid mac address %q: %w", s, err)
		}
		mac[i] = byte(b)
	}
	return mac, nil
}

func splitPair(s string, sep byte) (string, string, bool) {
	for i := 0; i < len(s); i++ {
		if s[i] == sep {
			return s[:i], s[i+1:], true
		}
	}
	return "", "", false
}

func splitNonEmpty(s string, sep byte) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == sep {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}
