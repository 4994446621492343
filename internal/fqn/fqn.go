// Package fqn assembles C++ qualified names from enclosing-scope chains.
package fqn

import (
	"fmt"
	"strings"
)

// Join appends a declaration name to its enclosing context.
// Examples:
//   - Join("N::C", "f") = "N::C::f"
//   - Join("", "N") = "N"
func Join(context, name string) string {
	if context == "" {
		return name
	}
	if name == "" {
		return context
	}
	return context + "::" + name
}

// JoinParts builds a qualified name from an in-to-out scope chain.
func JoinParts(parts []string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "::")
}

// Parent returns the enclosing context of a qualified name:
// Parent("N::C::f") = "N::C"; Parent("f") = "".
func Parent(qualified string) string {
	idx := strings.LastIndex(qualified, "::")
	if idx < 0 {
		return ""
	}
	return qualified[:idx]
}

// Leaf returns the last component of a qualified name.
func Leaf(qualified string) string {
	idx := strings.LastIndex(qualified, "::")
	if idx < 0 {
		return qualified
	}
	return qualified[idx+2:]
}

// Unnamed synthesizes the display name for an anonymous entity, in the
// diagnostic form compilers print: "(unnamed struct at file.cpp:10:5)".
func Unnamed(kind, location string) string {
	return fmt.Sprintf("(unnamed %s at %s)", kind, location)
}

// StripTemplateArgs removes a trailing template argument list:
// StripTemplateArgs("identity<int>") = "identity". Nested argument
// lists are handled; a name without one is returned unchanged.
func StripTemplateArgs(name string) string {
	idx := strings.IndexByte(name, '<')
	if idx < 0 {
		return name
	}
	return strings.TrimSpace(name[:idx])
}

// TemplateArgs returns the text inside a trailing template argument
// list, or "" when the name has none.
func TemplateArgs(name string) string {
	start := strings.IndexByte(name, '<')
	end := strings.LastIndexByte(name, '>')
	if start < 0 || end <= start {
		return ""
	}
	return name[start+1 : end]
}
