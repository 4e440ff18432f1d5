package codec

import "sort"

// Registry maps content types to codecs, with an alias table remapping
// near-miss types (text/plain posted by sloppy clients) onto registered
// ones. Register everything at startup; lookups are read-only after.
type Registry struct {
	codecs map[string]Codec
	remap  map[string]string
}

func NewRegistry(codecs ...Codec) *Registry {
	r := &Registry{
		codecs: make(map[string]Codec, len(codecs)),
		remap:  make(map[string]string),
	}
	for _, c := range codecs {
		r.Register(c)
	}
	return r
}

// Default returns a registry with the JSON, MessagePack and YAML codecs
// and the text/plain -> JSON remap.
func Default() *Registry {
	r := NewRegistry(Json(), Msgpack(), Yaml())
	r.Remap("text/plain", ContentTypeJson)
	return r
}

func (r *Registry) Register(c Codec) *Registry {
	r.codecs[c.ContentType()] = c
	return r
}

func (r *Registry) Remap(alias, target string) *Registry {
	r.remap[alias] = target
	return r
}

// Find resolves a raw header value to a codec, applying ParseContentType
// and the remap table.
func (r *Registry) Find(contentType string) (Codec, bool) {
	ct := ParseContentType(contentType)
	if target, ok := r.remap[ct]; ok {
		ct = target
	}
	c, ok := r.codecs[ct]
	return c, ok
}

// ContentTypes lists the registered types in stable order, used for the
// consumes/produces lists of generated documents.
func (r *Registry) ContentTypes() []string {
	types := make([]string, 0, len(r.codecs))
	for ct := range r.codecs {
		types = append(types, ct)
	}
	sort.Strings(types)
	return types
}
