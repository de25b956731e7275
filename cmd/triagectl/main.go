// Command triagectl runs the triage classifier, scorer and router locally
// against the default or a YAML rule table.
//
// Usage:
//
//	triagectl classify --district Pune "water pipe leak near the school"
//	triagectl score --urgency high --feedback 4 --days 3
//	triagectl route --category infrastructure --suggested "Public Works Department" --load "Water Supply Department=3,Public Works Department=8"
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
