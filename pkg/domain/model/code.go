package model

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

const (
	RiskCodePrefix  = "RISK-"
	IssueCodePrefix = "ISS-"
	TaskCodePrefix  = "TSK-"
)

// ProjectCodePrefix returns the prefix shared by the project codes of a year
func ProjectCodePrefix(year int) string {
	return fmt.Sprintf("PRJ-%d-", year)
}

// ProjectCode formats the human readable project identifier, e.g. PRJ-2026-001
func ProjectCode(year int, seq int64) string {
	return fmt.Sprintf("%s%03d", ProjectCodePrefix(year), seq)
}

// RiskCode formats the per-project risk identifier, e.g. RISK-001
func RiskCode(seq int64) string {
	return fmt.Sprintf("%s%03d", RiskCodePrefix, seq)
}

// IssueCode formats the per-project issue identifier, e.g. ISS-001
func IssueCode(seq int64) string {
	return fmt.Sprintf("%s%03d", IssueCodePrefix, seq)
}

// TaskCode formats the per-project task identifier, e.g. TSK-0001
func TaskCode(seq int64) string {
	return fmt.Sprintf("%s%04d", TaskCodePrefix, seq)
}

// CodeSeq extracts the sequence number of a code built with prefix. It
// reports false for codes with another prefix or a non numeric suffix.
func CodeSeq(code, prefix string) (int64, bool) {
	rest, ok := strings.CutPrefix(code, prefix)
	if !ok || rest == "" {
		return 0, false
	}
	seq, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || seq < 0 {
		return 0, false
	}
	return seq, true
}

// MaxCodeSeq returns the highest sequence number among codes with prefix,
// or zero when none match.
func MaxCodeSeq(prefix string, codes ...string) int64 {
	var highest int64
	for _, code := range codes {
		if seq, ok := CodeSeq(code, prefix); ok && seq > highest {
			highest = seq
		}
	}
	return highest
}

// Initials returns the upper-cased first letter of each word of name
func Initials(name string) string {
	var b strings.Builder
	for _, part := range strings.Fields(name) {
		for _, r := range part {
			b.WriteRune(unicode.ToUpper(r))
			break
		}
	}
	return b.String()
}
