//go:build ignore

package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/muurk/lampsmart/internal/protocol"
	"github.com/muurk/lampsmart/internal/server"
)

// Statistics tracks decode results
type Statistics struct {
	TotalFiles   int
	TotalPackets int
	Decoded      int
	BadCRC       int
	Rejected     int
	Opcodes      map[protocol.Opcode]int
	Hosts        map[string]int
	Failures     []Failure
}

// Failure stores one packet that did not decode cleanly
type Failure struct {
	File       string
	LineNumber int
	PayloadHex string
	Error      string
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: validate_captures <directory-or-file>")
		fmt.Println("Example: validate_captures captures/")
		fmt.Println("         validate_captures events-20261019.jsonl")
		fmt.Println()
		fmt.Println("Lines are either bridge events from /api/events (JSON) or raw hex payloads.")
		os.Exit(1)
	}

	path := os.Args[1]
	stats := Statistics{
		Opcodes: make(map[protocol.Opcode]int),
		Hosts:   make(map[string]int),
	}

	info, err := os.Stat(path)
	if err != nil {
		fmt.Printf("Error accessing path: %v\n", err)
		os.Exit(1)
	}

	files := []string{path}
	if info.IsDir() {
		files = nil
		for _, pattern := range []string{"*.jsonl", "*.txt", "*.hex"} {
			matches, _ := filepath.Glob(filepath.Join(path, pattern))
			files = append(files, matches...)
		}
		if len(files) == 0 {
			fmt.Printf("No capture files found in %s\n", path)
			os.Exit(1)
		}
	}

	fmt.Printf("=== LampSmart Capture Validator ===\n")
	fmt.Printf("Files to process: %d\n\n", len(files))

	for _, file := range files {
		processFile(file, &stats)
	}

	printStatistics(&stats)
	if stats.Rejected > 0 || stats.BadCRC > 0 {
		os.Exit(2)
	}
}

// payloadHex extracts the hex payload from a capture line.
func payloadHex(line string) (string, error) {
	if !strings.HasPrefix(line, "{") {
		return line, nil
	}
	var ev server.Event
	if err := json.Unmarshal([]byte(line), &ev); err != nil {
		return "", fmt.Errorf("invalid event JSON: %w", err)
	}
	return ev.Payload, nil
}

func processFile(filename string, stats *Statistics) {
	stats.TotalFiles++

	f, err := os.Open(filename)
	if err != nil {
		fmt.Printf("Error reading file %s: %v\n", filename, err)
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		stats.TotalPackets++

		fail := func(hexStr string, err error) {
			stats.Failures = append(stats.Failures, Failure{
				File:       filename,
				LineNumber: lineNum,
				PayloadHex: hexStr,
				Error:      err.Error(),
			})
		}

		hexStr, err := payloadHex(line)
		if err != nil {
			stats.Rejected++
			fail(line, err)
			continue
		}

		d, err := protocol.ParseHex(hexStr)
		switch {
		case d == nil:
			stats.Rejected++
			fail(hexStr, err)
			continue
		case errors.Is(err, protocol.ErrCRCMismatch):
			stats.BadCRC++
			fail(hexStr, err)
		default:
			stats.Decoded++
		}
		stats.Opcodes[d.Opcode]++
		stats.Hosts[fmt.Sprintf("%02x:%x_", d.HostID[0], d.HostID[1]>>4)]++
	}
	if err := scanner.Err(); err != nil {
		fmt.Printf("Error reading %s: %v\n", filename, err)
	}
}

func percent(n, of int) float64 {
	if of == 0 {
		return 0
	}
	return float64(n) / float64(of) * 100
}

func printStatistics(stats *Statistics) {
	fmt.Printf("\n========================================\n")
	fmt.Printf("VALIDATION RESULTS\n")
	fmt.Printf("========================================\n\n")

	fmt.Printf("Files Processed:    %d\n", stats.TotalFiles)
	fmt.Printf("Total Packets:      %d\n", stats.TotalPackets)
	fmt.Printf("Decoded:            %d (%.2f%%)\n", stats.Decoded, percent(stats.Decoded, stats.TotalPackets))
	fmt.Printf("CRC Mismatch:       %d (%.2f%%)\n", stats.BadCRC, percent(stats.BadCRC, stats.TotalPackets))
	fmt.Printf("Rejected:           %d (%.2f%%)\n", stats.Rejected, percent(stats.Rejected, stats.TotalPackets))

	fmt.Printf("\n----------------------------------------\n")
	fmt.Printf("OPCODE DISTRIBUTION\n")
	fmt.Printf("----------------------------------------\n")
	ops := make([]protocol.Opcode, 0, len(stats.Opcodes))
	for op := range stats.Opcodes {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i] < ops[j] })
	for _, op := range ops {
		fmt.Printf("0x%02X (%s): %d\n", uint16(op), op, stats.Opcodes[op])
	}

	fmt.Printf("\n----------------------------------------\n")
	fmt.Printf("HOST IDS\n")
	fmt.Printf("----------------------------------------\n")
	hosts := make([]string, 0, len(stats.Hosts))
	for h := range stats.Hosts {
		hosts = append(hosts, h)
	}
	sort.Strings(hosts)
	for _, h := range hosts {
		fmt.Printf("%s: %d packets\n", h, stats.Hosts[h])
	}

	if len(stats.Failures) > 0 {
		fmt.Printf("\n----------------------------------------\n")
		fmt.Printf("FAILURES (%d total)\n", len(stats.Failures))
		fmt.Printf("----------------------------------------\n")

		maxShow := 10
		if len(stats.Failures) > maxShow {
			fmt.Printf("(Showing first %d of %d failures)\n\n", maxShow, len(stats.Failures))
		}
		for i, failed := range stats.Failures {
			if i >= maxShow {
				break
			}
			fmt.Printf("\nFailure #%d:\n", i+1)
			fmt.Printf("  File: %s (line %d)\n", failed.File, failed.LineNumber)
			fmt.Printf("  Error: %s\n", failed.Error)
			fmt.Printf("  Payload: %s\n", failed.PayloadHex)
		}
	}

	fmt.Printf("\n========================================\n")
	if len(stats.Failures) == 0 {
		fmt.Printf("✅ SUCCESS: All packets decoded!\n")
	} else {
		fmt.Printf("⚠️  ISSUES FOUND: %d packets failed to decode\n", len(stats.Failures))
	}
	fmt.Printf("========================================\n")
}
