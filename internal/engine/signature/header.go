package signature

import (
	"strconv"
	"strings"
)

// Header elements are comma separated key=value pairs, e.g.
// "t=1614556800,v1=5257a869...,v1=6ffbb59b...". There is no escaping; a
// literal comma inside a value is not supported. Each element is split on
// the first '=' only, so values may themselves contain '='.

// Timestamp extracts the value of the first "t" element as a unix timestamp
// in seconds. It returns -1 when no "t" element exists or its value is not
// a base-10 integer. The caller treats -1 as a malformed header.
func Timestamp(header string) int64 {
	for _, item := range strings.Split(header, ",") {
		parts := strings.SplitN(item, "=", 2)
		if len(parts) != 2 || parts[0] != "t" {
			continue
		}
		ts, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return -1
		}
		return ts
	}
	return -1
}

// Signatures returns, in header order, the values of every element whose
// key equals scheme. It returns an empty slice when none match.
func Signatures(header, scheme string) []string {
	var sigs []string
	for _, item := range strings.Split(header, ",") {
		parts := strings.SplitN(item, "=", 2)
		if len(parts) == 2 && parts[0] == scheme {
			sigs = append(sigs, parts[1])
		}
	}
	return sigs
}
