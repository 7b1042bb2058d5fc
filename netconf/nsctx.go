package netconf

import "github.com/beevik/etree"

// NamespaceContext binds namespace prefixes to URIs for filter expressions.
// Entries keep insertion order; an empty prefix denotes the default
// namespace. The zero value is empty and ready to use.
type NamespaceContext struct {
	pairs []nsPair
}

type nsPair struct {
	prefix string
	uri    string
}

// NewNamespaceContext returns a context holding one initial binding.
func NewNamespaceContext(prefix, uri string) *NamespaceContext {
	nsc := &NamespaceContext{}
	return nsc.Add(prefix, uri)
}

// Add binds prefix to uri, replacing any existing binding for prefix.
func (nsc *NamespaceContext) Add(prefix, uri string) *NamespaceContext {
	for i := range nsc.pairs {
		if nsc.pairs[i].prefix == prefix {
			nsc.pairs[i].uri = uri
			return nsc
		}
	}
	nsc.pairs = append(nsc.pairs, nsPair{prefix: prefix, uri: uri})
	return nsc
}

// URI reports the binding for prefix.
func (nsc *NamespaceContext) URI(prefix string) (string, bool) {
	if nsc == nil {
		return "", false
	}
	for _, p := range nsc.pairs {
		if p.prefix == prefix {
			return p.uri, true
		}
	}
	return "", false
}

// Len reports the number of bindings.
func (nsc *NamespaceContext) Len() int {
	if nsc == nil {
		return 0
	}
	return len(nsc.pairs)
}

// Each calls fn once per binding in insertion order.
func (nsc *NamespaceContext) Each(fn func(prefix, uri string)) {
	if nsc == nil {
		return
	}
	for _, p := range nsc.pairs {
		fn(p.prefix, p.uri)
	}
}

// AppendFilter adds an xpath filter element for select to parent, declaring
// exactly one xmlns attribute per namespace-context binding.
func AppendFilter(parent *etree.Element, xpath string, nsc *NamespaceContext) {
	f := parent.CreateElement(BasePrefix + ":filter")
	f.CreateAttr(BasePrefix+":type", "xpath")
	f.CreateAttr(BasePrefix+":select", xpath)
	nsc.Each(func(prefix, uri string) {
		if prefix == "" {
			f.CreateAttr("xmlns", uri)
			return
		}
		f.CreateAttr("xmlns:"+prefix, uri)
	})
}
