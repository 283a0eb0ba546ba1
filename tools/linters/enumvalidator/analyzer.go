package enumvalidator

import (
	"go/ast"
	"go/constant"
	"go/token"
	"go/types"
	"sort"
	"strings"

	"golang.org/x/tools/go/analysis"
)

var Analyzer = &analysis.Analyzer{
	Name: "enumvalidator",
	Doc:  "checks that enum fields only use defined constants and that switches over enums are exhaustive",
	Run:  run,
}

// enumTypes are the closed sets of the auth and pipeline model.
var enumTypes = map[string]bool{
	"ErrorCode":   true,
	"Role":        true,
	"RequestKind": true,
}

func run(pass *analysis.Pass) (interface{}, error) {
	for _, file := range pass.Files {
		ast.Inspect(file, func(n ast.Node) bool {
			switch node := n.(type) {
			case *ast.AssignStmt:
				checkAssign(pass, node)
			case *ast.CompositeLit:
				checkCompositeLit(pass, node)
			case *ast.SwitchStmt:
				checkSwitch(pass, node)
			}
			return true
		})
	}
	return nil, nil
}

func checkAssign(pass *analysis.Pass, assign *ast.AssignStmt) {
	for i, lhs := range assign.Lhs {
		if i >= len(assign.Rhs) {
			continue
		}
		sel, ok := lhs.(*ast.SelectorExpr)
		if !ok || enumType(pass, sel) == nil {
			continue
		}
		if isStringLiteral(assign.Rhs[i]) {
			pass.Reportf(assign.Pos(),
				"enum field %s assigned string literal; use defined constant instead",
				sel.Sel.Name)
		}
	}
}

func checkCompositeLit(pass *analysis.Pass, lit *ast.CompositeLit) {
	for _, elt := range lit.Elts {
		kv, ok := elt.(*ast.KeyValueExpr)
		if !ok || !isStringLiteral(kv.Value) {
			continue
		}
		key, ok := kv.Key.(*ast.Ident)
		if !ok || enumType(pass, kv.Value) == nil {
			continue
		}
		pass.Reportf(kv.Pos(),
			"enum field %s assigned string literal; use defined constant instead",
			key.Name)
	}
}

func checkSwitch(pass *analysis.Pass, sw *ast.SwitchStmt) {
	if sw.Tag == nil {
		return
	}
	named := enumType(pass, sw.Tag)
	if named == nil {
		return
	}

	members := enumMembers(named)
	covered := make([]bool, len(members))
	for _, stmt := range sw.Body.List {
		clause, ok := stmt.(*ast.CaseClause)
		if !ok {
			continue
		}
		if clause.List == nil {
			return // default
		}
		for _, expr := range clause.List {
			tv, ok := pass.TypesInfo.Types[expr]
			if !ok || tv.Value == nil {
				continue
			}
			for i, m := range members {
				if constant.Compare(m.Val(), token.EQL, tv.Value) {
					covered[i] = true
				}
			}
		}
	}

	var missing []string
	for i, m := range members {
		if !covered[i] {
			missing = append(missing, m.Name())
		}
	}
	if len(missing) == 0 {
		return
	}
	sort.Strings(missing)
	pass.Reportf(sw.Pos(),
		"switch on %s is missing %s; add the cases or a default",
		named.Obj().Name(), strings.Join(missing, ", "))
}

// enumType returns the enum type of expr, or nil if it is not one.
func enumType(pass *analysis.Pass, expr ast.Expr) *types.Named {
	t := pass.TypesInfo.TypeOf(expr)
	if t == nil {
		return nil
	}
	named, ok := t.(*types.Named)
	if !ok || !enumTypes[named.Obj().Name()] {
		return nil
	}
	return named
}

// enumMembers lists the constants of type named declared in its package.
func enumMembers(named *types.Named) []*types.Const {
	pkg := named.Obj().Pkg()
	if pkg == nil {
		return nil
	}
	var members []*types.Const
	scope := pkg.Scope()
	for _, name := range scope.Names() {
		c, ok := scope.Lookup(name).(*types.Const)
		if ok && types.Identical(c.Type(), named) {
			members = append(members, c)
		}
	}
	return members
}

func isStringLiteral(expr ast.Expr) bool {
	lit, ok := expr.(*ast.BasicLit)
	return ok && lit.Kind == token.STRING
}
