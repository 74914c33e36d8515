// Package chunkio describes file objects that may be backed by more
// than one chunk, possibly remote, and provides the disk-backed
// ChunkedFile implementation used by the writer and reader packages.
// Ported from original_source/vrs/FileSpec.h/.cpp.
package chunkio

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Spec is a generalized file descriptor: possibly multiple chunks,
// with a named handler (empty means a plain local file), an optional
// explicit file name, an optional source uri, and arbitrary extra
// properties carried as string key/value pairs.
type Spec struct {
	FileHandlerName string
	FileName        string
	URI             string
	Chunks          []string
	ChunkSizes      []int64
	Extras          map[string]string
}

// NewSpec returns a Spec for a plain set of local-file chunks.
func NewSpec(chunks ...string) Spec {
	return Spec{Chunks: chunks}
}

// Empty reports whether s names no chunks and no uri.
func (s Spec) Empty() bool {
	return len(s.Chunks) == 0 && s.URI == ""
}

// IsDiskFile reports whether s is a plain on-disk file (no named
// handler, meaning the chunks are local paths).
func (s Spec) IsDiskFile() bool {
	return s.FileHandlerName == "" || s.FileHandlerName == "diskfile"
}

// HasChunkSizes reports whether every chunk has a known size.
func (s Spec) HasChunkSizes() bool {
	return len(s.Chunks) > 0 && len(s.ChunkSizes) == len(s.Chunks)
}

// FileSize returns the total size across all chunks, or -1 if not known.
func (s Spec) FileSize() int64 {
	if !s.HasChunkSizes() {
		return -1
	}
	var total int64
	for _, sz := range s.ChunkSizes {
		total += sz
	}
	return total
}

// GetExtra returns the named extra parameter, or "" if unset.
func (s Spec) GetExtra(name string) string {
	return s.Extras[name]
}

// HasExtra reports whether the named extra parameter is set.
func (s Spec) HasExtra(name string) bool {
	_, ok := s.Extras[name]
	return ok
}

// GetExtraAsInt64 returns the named extra parameter parsed as an
// int64, or def if unset or unparsable.
func (s Spec) GetExtraAsInt64(name string, def int64) int64 {
	v, ok := s.Extras[name]
	if !ok {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}

// GetExtraAsBool returns the named extra parameter interpreted as a
// bool ("1" or "true" are true, anything else is false), or def if unset.
func (s Spec) GetExtraAsBool(name string, def bool) bool {
	v, ok := s.Extras[name]
	if !ok {
		return def
	}
	return v == "1" || v == "true"
}

// SetExtra sets an extra string parameter, creating the map if needed.
func (s *Spec) SetExtra(name, value string) {
	if s.Extras == nil {
		s.Extras = map[string]string{}
	}
	s.Extras[name] = value
}

// UnsetExtra removes an extra parameter.
func (s *Spec) UnsetExtra(name string) {
	delete(s.Extras, name)
}

// specJSON is the wire shape for Spec's JSON form, matching the
// original's {"storage": ..., "chunks": [...], "filename": ...} layout.
type specJSON struct {
	Storage    string            `json:"storage,omitempty"`
	FileName   string            `json:"filename,omitempty"`
	URI        string            `json:"uri,omitempty"`
	Chunks     []string          `json:"chunks,omitempty"`
	ChunkSizes []int64           `json:"chunk_sizes,omitempty"`
	Extras     map[string]string `json:"extras,omitempty"`
}

// ToJSON renders s as JSON, e.g. {"storage":"mystorage","filename":"f.vrs","chunks":["a","b"]}.
func (s Spec) ToJSON() (string, error) {
	j := specJSON{
		Storage:    s.FileHandlerName,
		FileName:   s.FileName,
		URI:        s.URI,
		Chunks:     s.Chunks,
		ChunkSizes: s.ChunkSizes,
		Extras:     s.Extras,
	}
	b, err := json.Marshal(j)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// FromJSON parses jsonStr (as produced by ToJSON) into a Spec.
func FromJSON(jsonStr string) (Spec, error) {
	var j specJSON
	if err := json.Unmarshal([]byte(jsonStr), &j); err != nil {
		return Spec{}, err
	}
	return Spec{
		FileHandlerName: j.Storage,
		FileName:        j.FileName,
		URI:             j.URI,
		Chunks:          j.Chunks,
		ChunkSizes:      j.ChunkSizes,
		Extras:          j.Extras,
	}, nil
}

// ParseURI parses a uri of the form scheme:path?k=v&k2=v2, returning
// the scheme, path and decoded query parameters.
func ParseURI(uri string) (scheme, path string, params map[string]string, err error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", "", nil, err
	}
	params = map[string]string{}
	for k, vs := range u.Query() {
		if len(vs) > 0 {
			params[k] = vs[0]
		}
	}
	p := u.Opaque
	if p == "" {
		p = u.Path
	}
	return u.Scheme, p, params, nil
}

// FromPathJSONURI is a smart setter: pathJSONURI may be a plain local
// path, a JSON spec (as produced by ToJSON), or a URI. defaultHandler
// names the handler to assume for a plain path (empty means disk file).
func FromPathJSONURI(pathJSONURI, defaultHandler string) (Spec, error) {
	trimmed := strings.TrimSpace(pathJSONURI)
	if strings.HasPrefix(trimmed, "{") {
		return FromJSON(trimmed)
	}
	if idx := strings.Index(trimmed, "://"); idx > 0 && isValidScheme(trimmed[:idx]) {
		scheme, path, params, err := ParseURI(trimmed)
		if err != nil {
			return Spec{}, err
		}
		s := Spec{FileHandlerName: scheme, URI: trimmed, Chunks: []string{path}}
		for k, v := range params {
			s.SetExtra(k, v)
		}
		return s, nil
	}
	s := Spec{FileHandlerName: defaultHandler, Chunks: []string{trimmed}}
	return s, nil
}

func isValidScheme(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '+' || r == '-' || r == '.') {
			return false
		}
	}
	return true
}

// ToPathJSONURI is the reverse of FromPathJSONURI, as closely as
// possible: a spec with a URI returns that URI, a single local chunk
// with no extras round-trips to a plain path, anything else round-trips
// through JSON.
func (s Spec) ToPathJSONURI() (string, error) {
	if s.URI != "" {
		return s.URI, nil
	}
	if s.IsDiskFile() && len(s.Chunks) == 1 && len(s.Extras) == 0 {
		return s.Chunks[0], nil
	}
	return s.ToJSON()
}

// GetSourceLocation returns the uri if set, or the file handler name otherwise.
func (s Spec) GetSourceLocation() string {
	if s.URI != "" {
		return s.URI
	}
	return s.FileHandlerName
}

// NextChunkPath returns the path a writer rolling past firstChunkPath
// should use for its chunkIndex'th additional chunk (1-based), per the
// "<base>_1, <base>_2, …" naming convention: the index is inserted
// before the first chunk's extension, if it has one.
func NextChunkPath(firstChunkPath string, chunkIndex int) string {
	base := firstChunkPath
	ext := ""
	lastSlash := strings.LastIndexAny(firstChunkPath, "/\\")
	if i := strings.LastIndex(firstChunkPath, "."); i > lastSlash {
		base, ext = firstChunkPath[:i], firstChunkPath[i:]
	}
	return fmt.Sprintf("%s_%d%s", base, chunkIndex, ext)
}

// GetFileName returns the explicit file name if set, or the base name
// of the first chunk.
func (s Spec) GetFileName() string {
	if s.FileName != "" {
		return s.FileName
	}
	if len(s.Chunks) == 0 {
		return ""
	}
	first := s.Chunks[0]
	if i := strings.LastIndexAny(first, "/\\"); i >= 0 {
		return first[i+1:]
	}
	return first
}
