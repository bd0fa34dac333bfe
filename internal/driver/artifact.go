package driver

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"markc/internal/binding"
	"markc/internal/source"
)

// ArtifactSchema - увеличивать при любом изменении формата Artifact.
const ArtifactSchema uint16 = 1

// Artifact is what a successful compile hands to code generation: the
// rewritten markup plus the bound elements, scopes and bindings.
type Artifact struct {
	Schema    uint16        `msgpack:"schema" json:"schema"`
	Path      string        `msgpack:"path" json:"path"`
	Digest    string        `msgpack:"digest" json:"digest"`
	Class     string        `msgpack:"class,omitempty" json:"class,omitempty"`
	Rewritten string        `msgpack:"rewritten" json:"-"`
	Elements  []ElementInfo `msgpack:"elements" json:"elements"`
	Scopes    []ScopeInfo   `msgpack:"scopes" json:"scopes"`
	Bindings  []BindingInfo `msgpack:"bindings" json:"bindings"`
}

type ElementInfo struct {
	ID                uint32 `msgpack:"id" json:"id"`
	Tag               string `msgpack:"tag" json:"tag"`
	Name              string `msgpack:"name,omitempty" json:"name,omitempty"`
	Scope             uint32 `msgpack:"scope" json:"scope"`
	Line              uint32 `msgpack:"line" json:"line"`
	Col               uint32 `msgpack:"col" json:"col"`
	Retained          bool   `msgpack:"retained,omitempty" json:"retained,omitempty"`
	UsedByOtherScopes bool   `msgpack:"cross_scope,omitempty" json:"cross_scope,omitempty"`
}

type ScopeInfo struct {
	ID                uint32     `msgpack:"id" json:"id"`
	Kind              string     `msgpack:"kind" json:"kind"`
	Parent            uint32     `msgpack:"parent,omitempty" json:"parent,omitempty"`
	DataType          string     `msgpack:"data_type,omitempty" json:"data_type,omitempty"`
	NeedsOuterElement bool       `msgpack:"needs_outer,omitempty" json:"needs_outer,omitempty"`
	Bound             []uint32   `msgpack:"bound,omitempty" json:"bound,omitempty"`
	Outer             []uint32   `msgpack:"outer,omitempty" json:"outer,omitempty"`
	Retained          []uint32   `msgpack:"retained,omitempty" json:"retained,omitempty"`
	Steps             []StepInfo `msgpack:"steps" json:"steps"`
}

type StepInfo struct {
	ID     uint32   `msgpack:"id" json:"id"`
	Parent uint32   `msgpack:"parent,omitempty" json:"parent,omitempty"`
	Kind   string   `msgpack:"kind" json:"kind"`
	Name   string   `msgpack:"name,omitempty" json:"name,omitempty"`
	Key    string   `msgpack:"key" json:"key"`
	Ident  string   `msgpack:"ident" json:"ident"`
	Type   string   `msgpack:"type,omitempty" json:"type,omitempty"`
	Flags  []string `msgpack:"flags,omitempty" json:"flags,omitempty"`
}

type BindingInfo struct {
	Scope   uint32 `msgpack:"scope" json:"scope"`
	Element uint32 `msgpack:"element" json:"element"`
	Kind    string `msgpack:"kind" json:"kind"`
	Target  string `msgpack:"target" json:"target"`
	Path    string `msgpack:"path" json:"path"`
	Mode    string `msgpack:"mode" json:"mode"`
	Leaf    uint32 `msgpack:"leaf,omitempty" json:"leaf,omitempty"`
	Line    uint32 `msgpack:"line" json:"line"`
	Col     uint32 `msgpack:"col" json:"col"`
}

// NewArtifact snapshots a second-pass result.
func NewArtifact(file *source.File, res *binding.Result, rewritten string) *Artifact {
	a := &Artifact{
		Schema:    ArtifactSchema,
		Path:      file.Path,
		Digest:    file.Hash.String(),
		Rewritten: rewritten,
	}
	if res == nil || res.Universe == nil {
		return a
	}
	if res.Doc != nil && res.Doc.Root != nil {
		if cls := res.Doc.Root.LanguageAttr("Class"); cls != nil {
			a.Class = cls.Value
		}
	}
	for _, be := range res.Universe.Elements() {
		a.Elements = append(a.Elements, ElementInfo{
			ID:                uint32(be.ID),
			Tag:               be.Element.Name.String(),
			Name:              be.Name,
			Scope:             uint32(be.Scope),
			Line:              be.Element.Start.Line,
			Col:               be.Element.Start.Col,
			Retained:          be.Retained,
			UsedByOtherScopes: be.UsedByOtherScopes,
		})
	}
	for _, sc := range res.Universe.Scopes() {
		info := ScopeInfo{
			ID:                uint32(sc.ID),
			Kind:              sc.Kind.String(),
			Parent:            uint32(sc.Parent),
			NeedsOuterElement: sc.NeedsOuterElement,
			Bound:             elementIDs(sc.Bound),
			Outer:             elementIDs(sc.Outer),
			Retained:          elementIDs(sc.Retained),
		}
		if sc.DataType != nil {
			info.DataType = sc.DataType.FullName()
		}
		for _, st := range sc.Graph.Steps() {
			si := StepInfo{
				ID:     uint32(st.ID),
				Parent: uint32(st.Parent),
				Kind:   st.Kind.String(),
				Name:   st.Name,
				Key:    st.Key,
				Ident:  st.Ident,
				Flags:  flagNames(st),
			}
			if st.Type != nil {
				si.Type = st.Type.FullName()
			}
			info.Steps = append(info.Steps, si)
		}
		a.Scopes = append(a.Scopes, info)
	}
	for _, b := range res.Bindings {
		bi := BindingInfo{
			Scope:  uint32(b.Scope),
			Kind:   b.Kind.String(),
			Target: b.Attr.Name.String(),
			Path:   b.Path,
			Mode:   b.Mode().String(),
			Leaf:   uint32(b.Resolution.Leaf),
			Line:   b.Attr.Start.Line,
			Col:    b.Attr.Start.Col,
		}
		if b.Target != nil {
			bi.Element = uint32(b.Target.ID)
		}
		if b.TargetMember != nil {
			bi.Target = b.TargetMember.QualifiedName()
		}
		a.Bindings = append(a.Bindings, bi)
	}
	return a
}

func elementIDs(ids []binding.ElementID) []uint32 {
	if len(ids) == 0 {
		return nil
	}
	out := make([]uint32, len(ids))
	for i, id := range ids {
		out[i] = uint32(id)
	}
	return out
}

func flagNames(st *binding.Step) []string {
	var out []string
	for _, f := range []struct {
		flag binding.StepFlags
		name string
	}{
		{binding.FlagTracked, "tracked"},
		{binding.FlagDeferred, "deferred"},
		{binding.FlagMethodGroup, "method_group"},
		{binding.FlagNullGuarded, "null_guarded"},
	} {
		if st.Has(f.flag) {
			out = append(out, f.name)
		}
	}
	return out
}

// Encode serialises the artifact as stored in .mkb files.
func (a *Artifact) Encode() ([]byte, error) {
	return msgpack.Marshal(a)
}

// DecodeArtifact reads a .mkb payload.
func DecodeArtifact(data []byte) (*Artifact, error) {
	var a Artifact
	if err := msgpack.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	if a.Schema != ArtifactSchema {
		return nil, fmt.Errorf("decode artifact: schema %d, want %d", a.Schema, ArtifactSchema)
	}
	return &a, nil
}

// JSON renders the graph part of the artifact for markc graph.
func (a *Artifact) JSON() ([]byte, error) {
	return json.MarshalIndent(a, "", "  ")
}

// Outputs names the files Write produces for a document at rel.
func Outputs(outDir, rel string) (textPath, binPath string) {
	base := filepath.Join(outDir, filepath.FromSlash(rel))
	ext := filepath.Ext(base)
	return base, strings.TrimSuffix(base, ext) + ".mkb"
}

// Write stores the rewritten markup and the .mkb next to each other under
// outDir, mirroring rel.
func (a *Artifact) Write(outDir, rel string) error {
	text, bin := Outputs(outDir, rel)
	if err := os.MkdirAll(filepath.Dir(text), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(text, []byte(a.Rewritten), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", text, err)
	}
	data, err := a.Encode()
	if err != nil {
		return err
	}
	if err := os.WriteFile(bin, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", bin, err)
	}
	return nil
}
