// Package routepattern compiles route templates into anchored matchers.
//
// A template is a literal path with a small set of special tokens:
//
//	:name    named parameter, matches [a-zA-Z0-9._-]+
//	*        wildcard, matches anything including "/"
//	*name    named wildcard (the name is not part of the match)
//	[...]    optional section
//	{...}    optional section that never captures
//
// The compiled matcher only succeeds when the whole fragment is consumed.
//
// # Usage
//
//	m, err := routepattern.Compile("/blog/:id[/:slug]")
//	if err != nil {
//	    return err
//	}
//
//	caps, ok := m.Match("/blog/42")
//	// ok == true, caps.Values() == []string{"42", ""}
//	// caps[1].Matched == false
//
// # Captures
//
// Every parameter and wildcard produces one capture, in template order.
// An optional section captures its own text only when it contains no
// parameters or wildcards, so "/list[/all]" has one capture and
// "/opt[/:id]" also has exactly one (the id). Braced sections never capture.
//
// Captures from optional parts that did not participate in the match are
// reported with Matched set to false, which keeps "absent" distinguishable
// from "present but empty".
//
// # Errors
//
// Unbalanced or mismatched brackets and empty optional sections are
// rejected at compile time with a *CompileError. Use errors.Is with
// ErrMalformedTemplate to detect them.
package routepattern
