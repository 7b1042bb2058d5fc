package netconf

import (
	"strings"

	"github.com/beevik/etree"
)

// FaultText renders one rpc-error element as a single human-readable line:
// error-type, error-tag, the first error-info child, error-severity,
// error-message and error-path, space separated, in that order, skipping
// absent parts.
func FaultText(fault *etree.Element) string {
	if fault == nil {
		return ""
	}
	var parts []string
	for _, tag := range []string{"error-type", "error-tag"} {
		if s := childText(fault, tag); s != "" {
			parts = append(parts, s)
		}
	}
	if info := fault.FindElement("error-info"); info != nil {
		if kids := info.ChildElements(); len(kids) > 0 {
			if s := serializeElement(kids[0]); s != "" {
				parts = append(parts, s)
			}
		}
	}
	for _, tag := range []string{"error-severity", "error-message", "error-path"} {
		if s := childText(fault, tag); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

func childText(parent *etree.Element, tag string) string {
	el := parent.FindElement(tag)
	if el == nil {
		return ""
	}
	return strings.TrimSpace(el.Text())
}

func serializeElement(el *etree.Element) string {
	doc := etree.NewDocument()
	doc.SetRoot(el.Copy())
	s, err := doc.WriteToString()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}
