// Package runtime evaluates parsed expressions: dual-mode term
// evaluation, simplification and factoring, differentiation and
// integration, Newton-Raphson root finding, and infinite sums.
package runtime

import (
	"fmt"

	"github.com/quillmath/quill/pkg/expr"
	"github.com/quillmath/quill/pkg/native"
	"github.com/quillmath/quill/pkg/types"
)

// FunctionDefinition is a user-defined function.
type FunctionDefinition struct {
	Name   string
	Params []string
	Body   expr.Node
	// Source is the body as originally written, used when the
	// definition is echoed back.
	Source string
}

// Context holds variable bindings, user-defined functions, and the
// native registry. Contexts chain: a function call evaluates its body
// in a child context whose parent is the defining context, so parameter
// bindings shadow outer ones while functions stay visible.
type Context struct {
	parent    *Context
	vars      map[string]types.Term
	functions map[string]*FunctionDefinition
	natives   *native.Registry
	constants map[string]string
	hidden    int
}

// NewContext creates a root context with the native registry and the
// built-in constants.
func NewContext() *Context {
	return &Context{
		vars:      make(map[string]types.Term),
		functions: make(map[string]*FunctionDefinition),
		natives:   native.NewRegistry(),
		constants: map[string]string{
			"e":  "2.718281828459045235",
			"pi": "3.1415926535897932",
		},
	}
}

// Child creates a context that inherits functions, natives and
// constants from its parent. Variable bindings start empty.
func (c *Context) Child() *Context {
	return &Context{
		parent:    c,
		vars:      make(map[string]types.Term),
		functions: c.functions,
		natives:   c.natives,
		constants: c.constants,
	}
}

// Bind sets a variable binding in this context.
func (c *Context) Bind(name string, t types.Term) {
	c.vars[name] = t
}

// LookupVar walks the context chain for a variable binding.
func (c *Context) LookupVar(name string) (types.Term, bool) {
	for ctx := c; ctx != nil; ctx = ctx.parent {
		if t, ok := ctx.vars[name]; ok {
			return t, true
		}
	}
	return types.Zero, false
}

// Constant returns the literal text of a named constant.
func (c *Context) Constant(name string) (string, bool) {
	v, ok := c.constants[name]
	return v, ok
}

// Natives returns the native function registry.
func (c *Context) Natives() *native.Registry {
	return c.natives
}

// AddFunction registers a user-defined function from its definition
// node. Redefining an existing function or shadowing a native is a
// definition error.
func (c *Context) AddFunction(def *expr.FuncDefNode) (*FunctionDefinition, error) {
	if c.natives.Contains(def.Name) {
		return nil, types.NewDefinitionError(
			fmt.Sprintf("%q is a built-in function", def.Name))
	}
	if _, ok := c.functions[def.Name]; ok {
		return nil, types.NewDefinitionError(
			fmt.Sprintf("function %q is already defined", def.Name))
	}
	seen := make(map[string]bool, len(def.Params))
	for _, p := range def.Params {
		if seen[p] {
			return nil, types.NewDefinitionError(
				fmt.Sprintf("duplicate parameter %q in function %q", p, def.Name))
		}
		seen[p] = true
	}
	fd := &FunctionDefinition{
		Name:   def.Name,
		Params: def.Params,
		Body:   def.Body,
		Source: def.Source,
	}
	c.functions[def.Name] = fd
	return fd, nil
}

// NextHiddenName returns a fresh name for an internally synthesized
// function. A monotonic counter keeps the names deterministic; each
// candidate is still checked against the table before use.
func (c *Context) NextHiddenName() string {
	for {
		c.hidden++
		name := fmt.Sprintf("fn%d", c.hidden)
		if _, ok := c.functions[name]; !ok && !c.natives.Contains(name) {
			return name
		}
	}
}

// RemoveFunction drops a user-defined function. Used for the hidden
// functions synthesized during root finding.
func (c *Context) RemoveFunction(name string) {
	delete(c.functions, name)
}

// LookupFunction returns a user-defined function by name.
func (c *Context) LookupFunction(name string) (*FunctionDefinition, bool) {
	fd, ok := c.functions[name]
	return fd, ok
}

// Functions returns the user-defined function definitions in no
// particular order.
func (c *Context) Functions() []*FunctionDefinition {
	out := make([]*FunctionDefinition, 0, len(c.functions))
	for _, fd := range c.functions {
		out = append(out, fd)
	}
	return out
}
