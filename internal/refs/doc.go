// Package refs finds ERPNext document references in sanitized HTML and
// rewrites them into clickable elements.
//
// Two shapes are recognized: "<DocType>: <Code>" for the fixed doctype set,
// and standalone Service Protocol codes (SVP-YYYY-NNNN). Text already inside
// an anchor element is never rewritten.
//
// Extraction is a pure text transformation with a two-phase contract: the
// returned Result carries the rewritten HTML and one Binding per reference.
// The caller attaches click behavior (opening /app/<doctype>/<name>) after
// the HTML has been inserted into the live UI tree, since the target
// elements do not exist before then.
package refs
