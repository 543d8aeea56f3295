// Package draft persists a session's field values as a JSON document and
// applies accepted updates to it as RFC 6902 patches. The document shape
// is {"<sectionId>": {"<fieldKey>": "<value>"}}, which keeps drafts
// independent of the schema's display metadata.
package draft

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	jsonpatch "github.com/evanphx/json-patch/v5"

	"github.com/formease/formease/form"
)

// Operation is one RFC 6902 patch operation.
type Operation struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value,omitempty"`
}

const (
	opAdd     = "add"
	opReplace = "replace"
)

// Empty returns a fresh draft document.
func Empty() []byte {
	return []byte("{}")
}

// New builds a draft document holding the schema's current field values.
func New(schema *form.Schema) ([]byte, error) {
	doc := make(map[string]map[string]string, len(schema.Sections))
	for _, sec := range schema.Sections {
		values := make(map[string]string, len(sec.Fields))
		for _, f := range sec.Fields {
			values[f.FieldKey] = f.Value
		}
		doc[strconv.Itoa(sec.ID)] = values
	}
	out, err := sonic.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal draft: %w", err)
	}
	return out, nil
}

// Ops converts field updates into patch operations targeting
// /{sectionId}/{fieldKey}.
func Ops(updates []form.Update) []Operation {
	ops := make([]Operation, 0, len(updates))
	for _, u := range updates {
		ops = append(ops, Operation{
			Op:    opReplace,
			Path:  "/" + strconv.Itoa(u.SectionID) + "/" + escapePointer(u.FieldKey),
			Value: u.Value,
		})
	}
	return ops
}

// Apply patches the draft document with the given updates and returns the
// new document. Replace operations on missing paths are downgraded to
// add, and missing section objects are created first, so a fresh draft
// can absorb any update.
func Apply(doc []byte, updates []form.Update) ([]byte, error) {
	if len(updates) == 0 {
		return doc, nil
	}
	ops := fixOps(doc, Ops(updates))

	patchJSON, err := sonic.Marshal(ops)
	if err != nil {
		return nil, fmt.Errorf("marshal patch operations: %w", err)
	}
	patch, err := jsonpatch.DecodePatch(patchJSON)
	if err != nil {
		return nil, fmt.Errorf("decode patch: %w", err)
	}
	patched, err := patch.Apply(doc)
	if err != nil {
		return nil, fmt.Errorf("apply patch: %w", err)
	}
	return patched, nil
}

// fixOps downgrades replace to add for paths absent from the document and
// inserts container objects for missing sections.
func fixOps(doc []byte, ops []Operation) []Operation {
	var parsed any
	if err := sonic.Unmarshal(doc, &parsed); err != nil {
		return ops
	}

	fixed := make([]Operation, 0, len(ops))
	for _, op := range ops {
		if op.Op != opReplace {
			fixed = append(fixed, op)
			continue
		}
		if pathExists(parsed, op.Path) {
			fixed = append(fixed, op)
			continue
		}
		parent := parentPath(op.Path)
		if parent != "" && !pathExists(parsed, parent) {
			fixed = append(fixed, Operation{Op: opAdd, Path: parent, Value: map[string]any{}})
			markPath(parsed, parent)
		}
		op.Op = opAdd
		fixed = append(fixed, op)
	}
	return fixed
}

func parentPath(path string) string {
	idx := strings.LastIndex(path, "/")
	if idx <= 0 {
		return ""
	}
	return path[:idx]
}

// markPath records a just-added object in the parsed snapshot so later
// operations in the same batch see it.
func markPath(doc any, path string) {
	node, ok := doc.(map[string]any)
	if !ok {
		return
	}
	tokens := strings.Split(strings.TrimPrefix(path, "/"), "/")
	for i, token := range tokens {
		token = unescapePointer(token)
		if i == len(tokens)-1 {
			node[token] = map[string]any{}
			return
		}
		next, ok := node[token].(map[string]any)
		if !ok {
			return
		}
		node = next
	}
}

func pathExists(doc any, path string) bool {
	if path == "" {
		return true
	}
	if !strings.HasPrefix(path, "/") {
		return false
	}
	cur := doc
	for _, token := range strings.Split(path[1:], "/") {
		token = unescapePointer(token)
		switch node := cur.(type) {
		case map[string]any:
			value, ok := node[token]
			if !ok {
				return false
			}
			cur = value
		case []any:
			index, err := strconv.Atoi(token)
			if err != nil || index < 0 || index >= len(node) {
				return false
			}
			cur = node[index]
		default:
			return false
		}
	}
	return true
}

func escapePointer(token string) string {
	token = strings.ReplaceAll(token, "~", "~0")
	return strings.ReplaceAll(token, "/", "~1")
}

func unescapePointer(token string) string {
	token = strings.ReplaceAll(token, "~1", "/")
	return strings.ReplaceAll(token, "~0", "~")
}

// Values decodes a draft document back into section/field value maps.
func Values(doc []byte) (map[string]map[string]string, error) {
	out := make(map[string]map[string]string)
	if err := sonic.Unmarshal(doc, &out); err != nil {
		return nil, fmt.Errorf("unmarshal draft: %w", err)
	}
	return out, nil
}
