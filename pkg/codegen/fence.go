package codegen

import "regexp"

var fenceRe = regexp.MustCompile("```[a-zA-Z]*")

// StripCodeFences removes every markdown fence marker, with or without a
// language tag. Surrounding text is kept as is.
func StripCodeFences(s string) string {
	return fenceRe.ReplaceAllString(s, "")
}
