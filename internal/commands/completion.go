package commands

import (
	"strings"

	"github.com/spf13/cobra"
)

// dateKeywords are the relaxed --date forms worth completing; absolute
// dates the shell can't guess at.
var dateKeywords = []string{
	"today", "tomorrow", "yesterday",
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
	"next week", "last week", "next month", "last month", "eow", "eom",
}

func dateCompletions(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	var out []string
	for _, w := range dateKeywords {
		if strings.HasPrefix(w, toComplete) {
			out = append(out, w)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

// sectionKeywords cover the period names zone feeds use; the live feed is
// authoritative, so a miss still gets the real titles in the error hint.
var sectionKeywords = []string{
	"today", "tonight", "overnight", "this afternoon", "rest of today",
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
}

func sectionCompletions(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	var out []string
	lower := strings.ToLower(toComplete)
	for _, w := range sectionKeywords {
		if strings.HasPrefix(w, lower) {
			out = append(out, w)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}
