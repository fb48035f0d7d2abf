package toolchain

import (
	"bufio"
	"bytes"
	"regexp"
	"strconv"
)

// Counts summarises the diagnostics a tool reported.
type Counts struct {
	Errors   int
	Warnings int
}

var (
	summaryPattern = regexp.MustCompile(`(?i)completed with (\d+) errors? and (\d+) warnings?`)
	errorPattern   = regexp.MustCompile(`(?i)^\s*error\b[:\s]`)
	warningPattern = regexp.MustCompile(`(?i)^\s*warning\b[:\s]`)
)

// ParseCounts extracts error and warning counts from tool output. A summary line
// ("completed with N errors and M warnings") wins over per-line counting.
func ParseCounts(output []byte) Counts {
	if m := summaryPattern.FindSubmatch(output); m != nil {
		errs, _ := strconv.Atoi(string(m[1]))
		warns, _ := strconv.Atoi(string(m[2]))
		return Counts{Errors: errs, Warnings: warns}
	}

	var c Counts
	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		line := scanner.Bytes()
		switch {
		case errorPattern.Match(line):
			c.Errors++
		case warningPattern.Match(line):
			c.Warnings++
		}
	}
	return c
}
