// Copyright (C) 2021-2025 Chronicle Labs, Inc.
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package config

import (
	"maps"
	"slices"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"

	"github.com/chronicleprotocol/comma/sliceutil"
)

const (
	// variablesBlockName is the name of the block that defines variables.
	variablesBlockName = "variables"

	// variablesObjectName is the name of the object through which variables
	// are referenced.
	variablesObjectName = "var"
)

type variable struct {
	name string
	attr *hcl.Attribute
	refs []string
}

// decodeVariables evaluates the attributes of all "variables" blocks and
// makes them available in the evaluation context as attributes of the "var"
// object. Variables may refer to each other regardless of the order in which
// they are defined.
//
// Example:
//
//	variables {
//	  base    = "https://example.com"
//	  dataset = "${var.base}/data.csv"
//	}
//
// If a variable is defined more than once, the last definition is used.
// The returned body contains everything except the "variables" blocks.
func decodeVariables(ctx *hcl.EvalContext, body hcl.Body) (hcl.Body, hcl.Diagnostics) {
	content, remain, diags := body.PartialContent(&hcl.BodySchema{
		Blocks: []hcl.BlockHeaderSchema{{Type: variablesBlockName}},
	})
	if diags.HasErrors() {
		return nil, diags
	}
	vars := make(map[string]*variable)
	for _, block := range content.Blocks {
		attrs, attrDiags := block.Body.JustAttributes()
		diags = diags.Extend(attrDiags)
		for name, attr := range attrs {
			vars[name] = &variable{name: name, attr: attr, refs: references(attr.Expr)}
		}
	}
	if diags.HasErrors() {
		return nil, diags
	}
	order, sortDiags := sortVariables(ctx, vars)
	if sortDiags.HasErrors() {
		return nil, diags.Extend(sortDiags)
	}
	if ctx.Variables == nil {
		ctx.Variables = make(map[string]cty.Value)
	}
	values := make(map[string]cty.Value, len(order))
	ctx.Variables[variablesObjectName] = cty.EmptyObjectVal
	for _, v := range order {
		value, valueDiags := v.attr.Expr.Value(ctx)
		diags = diags.Extend(valueDiags)
		values[v.name] = value
		ctx.Variables[variablesObjectName] = cty.ObjectVal(maps.Clone(values))
	}
	return remain, diags
}

// references returns the names of the variables referenced by expr.
func references(expr hcl.Expression) []string {
	var refs []string
	for _, tr := range expr.Variables() {
		if tr.RootName() != variablesObjectName || len(tr) < 2 {
			continue
		}
		if attr, ok := tr[1].(hcl.TraverseAttr); ok {
			refs = sliceutil.AppendUnique(refs, attr.Name)
		}
	}
	return refs
}

// sortVariables orders variables so that every variable comes after the
// variables it refers to. References to undefined variables are left for
// the evaluation to report.
func sortVariables(ctx *hcl.EvalContext, vars map[string]*variable) ([]*variable, hcl.Diagnostics) {
	var (
		order    []*variable
		visited  = make(map[string]bool, len(vars))
		visiting = make(map[string]bool, len(vars))
	)
	var visit func(v *variable) hcl.Diagnostics
	visit = func(v *variable) hcl.Diagnostics {
		if visited[v.name] {
			return nil
		}
		if visiting[v.name] {
			return hcl.Diagnostics{{
				Severity:    hcl.DiagError,
				Summary:     "Circular reference detected",
				Detail:      "Variable " + v.name + " refers to itself through a circular reference.",
				Subject:     v.attr.Expr.Range().Ptr(),
				Expression:  v.attr.Expr,
				EvalContext: ctx,
			}}
		}
		visiting[v.name] = true
		for _, name := range v.refs {
			ref, ok := vars[name]
			if !ok {
				continue
			}
			if diags := visit(ref); diags.HasErrors() {
				return diags
			}
		}
		visiting[v.name] = false
		visited[v.name] = true
		order = append(order, v)
		return nil
	}
	for _, name := range slices.Sorted(maps.Keys(vars)) {
		if diags := visit(vars[name]); diags.HasErrors() {
			return nil, diags
		}
	}
	return order, nil
}
