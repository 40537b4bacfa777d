package aisl

import (
	"fmt"
	"strings"
)

// Expr is a node of the module tree.  Nodes are built once by the
// parser and never mutated; String renders the canonical s-expression
// spelling, which is also what the `-ast-only` driver flag prints.
type Expr interface {
	String() string
	exprNode()
}

// Literals

type LitInt struct{ Value int64 }

type LitFloat struct{ Value float64 }

type LitDecimal struct{ Value string }

type LitString struct{ Value string }

type LitBool struct{ Value bool }

type LitUnit struct{}

func (LitInt) exprNode()     {}
func (LitFloat) exprNode()   {}
func (LitDecimal) exprNode() {}
func (LitString) exprNode()  {}
func (LitBool) exprNode()    {}
func (LitUnit) exprNode()    {}

func (n *LitInt) String() string     { return fmt.Sprintf("%d", n.Value) }
func (n *LitFloat) String() string   { return fmt.Sprintf("%v", n.Value) }
func (n *LitDecimal) String() string { return n.Value + "d" }
func (n *LitString) String() string  { return fmt.Sprintf("%q", n.Value) }
func (n *LitUnit) String() string    { return "()" }

func (n *LitBool) String() string {
	if n.Value {
		return "true"
	}
	return "false"
}

// VarRef reads a variable from the current environment.
type VarRef struct{ Name string }

func (VarRef) exprNode()         {}
func (n *VarRef) String() string { return n.Name }

// CallExpr invokes a builtin or user function by name.  Every
// operation in the language is spelled this way; there are no
// operators.
type CallExpr struct {
	Name string
	Args []Expr
}

func (CallExpr) exprNode() {}

func (n *CallExpr) String() string {
	var s strings.Builder
	s.WriteString("(" + n.Name)
	for _, a := range n.Args {
		s.WriteString(" " + a.String())
	}
	s.WriteString(")")
	return s.String()
}

// SetExpr binds a variable with a declared type.  The binding is
// checked against the runtime value on every execution.
type SetExpr struct {
	Name  string
	Type  string
	Value Expr
}

func (SetExpr) exprNode() {}

func (n *SetExpr) String() string {
	return fmt.Sprintf("(set %s %s %s)", n.Name, n.Type, n.Value)
}

type ReturnExpr struct{ Value Expr }

func (ReturnExpr) exprNode() {}

func (n *ReturnExpr) String() string { return fmt.Sprintf("(ret %s)", n.Value) }

type IfExpr struct {
	Cond Expr
	Then []Expr
	Else []Expr
}

func (IfExpr) exprNode() {}

func (n *IfExpr) String() string {
	var s strings.Builder
	s.WriteString("(if " + n.Cond.String())
	for _, e := range n.Then {
		s.WriteString(" " + e.String())
	}
	if len(n.Else) > 0 {
		s.WriteString(" (else")
		for _, e := range n.Else {
			s.WriteString(" " + e.String())
		}
		s.WriteString(")")
	}
	s.WriteString(")")
	return s.String()
}

type CondBranch struct {
	Cond Expr
	Body []Expr
}

type CondExpr struct{ Branches []CondBranch }

func (CondExpr) exprNode() {}

func (n *CondExpr) String() string {
	var s strings.Builder
	s.WriteString("(cond")
	for _, b := range n.Branches {
		s.WriteString(" (" + b.Cond.String())
		for _, e := range b.Body {
			s.WriteString(" " + e.String())
		}
		s.WriteString(")")
	}
	s.WriteString(")")
	return s.String()
}

type WhileExpr struct {
	Cond Expr
	Body []Expr
}

func (WhileExpr) exprNode() {}

func (n *WhileExpr) String() string {
	return "(while " + n.Cond.String() + blockString(n.Body) + ")"
}

type LoopExpr struct{ Body []Expr }

func (LoopExpr) exprNode() {}

func (n *LoopExpr) String() string { return "(loop" + blockString(n.Body) + ")" }

type ForEachExpr struct {
	Var  string
	Type string
	Coll Expr
	Body []Expr
}

func (ForEachExpr) exprNode() {}

func (n *ForEachExpr) String() string {
	return fmt.Sprintf("(for-each %s %s %s%s)", n.Var, n.Type, n.Coll, blockString(n.Body))
}

type BreakExpr struct{}

type ContinueExpr struct{}

func (BreakExpr) exprNode()    {}
func (ContinueExpr) exprNode() {}

func (n *BreakExpr) String() string    { return "(break)" }
func (n *ContinueExpr) String() string { return "(continue)" }

type LabelExpr struct{ Name string }

type GotoExpr struct{ Name string }

type IfNotExpr struct {
	Cond  Expr
	Label string
}

func (LabelExpr) exprNode() {}
func (GotoExpr) exprNode()  {}
func (IfNotExpr) exprNode() {}

func (n *LabelExpr) String() string { return "(label " + n.Name + ")" }
func (n *GotoExpr) String() string  { return "(goto " + n.Name + ")" }

func (n *IfNotExpr) String() string {
	return fmt.Sprintf("(ifnot %s %s)", n.Cond, n.Label)
}

type TryExpr struct {
	Body      []Expr
	CatchVar  string
	CatchType string
	CatchBody []Expr
}

func (TryExpr) exprNode() {}

func (n *TryExpr) String() string {
	return fmt.Sprintf("(try%s (catch %s %s%s))",
		blockString(n.Body), n.CatchVar, n.CatchType, blockString(n.CatchBody))
}

// AndExpr and OrExpr are special forms, not calls: the right operand
// is only evaluated when the left one does not decide the result.

type AndExpr struct{ Left, Right Expr }

type OrExpr struct{ Left, Right Expr }

func (AndExpr) exprNode() {}
func (OrExpr) exprNode()  {}

func (n *AndExpr) String() string { return fmt.Sprintf("(and %s %s)", n.Left, n.Right) }
func (n *OrExpr) String() string  { return fmt.Sprintf("(or %s %s)", n.Left, n.Right) }

type ArrayLit struct{ Elems []Expr }

func (ArrayLit) exprNode() {}

func (n *ArrayLit) String() string {
	parts := make([]string, len(n.Elems))
	for i, e := range n.Elems {
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}

type MapPair struct {
	Key   Expr
	Value Expr
}

type MapLit struct{ Pairs []MapPair }

func (MapLit) exprNode() {}

func (n *MapLit) String() string {
	var s strings.Builder
	s.WriteString("{")
	for i, p := range n.Pairs {
		if i > 0 {
			s.WriteString(" ")
		}
		s.WriteString(p.Key.String() + " " + p.Value.String())
	}
	s.WriteString("}")
	return s.String()
}

func blockString(body []Expr) string {
	var s strings.Builder
	for _, e := range body {
		s.WriteString(" " + e.String())
	}
	return s.String()
}

// Param is a function parameter: a name and its declared type.
type Param struct {
	Name string
	Type string
}

// Function is a module-level function declaration.  It doubles as the
// runtime function value: functions are first class but close over
// nothing, so the declaration is the value.
type Function struct {
	Name       string
	Params     []Param
	ReturnType string
	Body       []Expr
}

func (Function) exprNode() {}

func (n *Function) String() string {
	var s strings.Builder
	s.WriteString("(fn " + n.Name)
	for _, p := range n.Params {
		s.WriteString(" " + p.Name + " " + p.Type)
	}
	s.WriteString(" -> " + n.ReturnType)
	s.WriteString(blockString(n.Body))
	s.WriteString(")")
	return s.String()
}

// TestCase is one declarative case of a test-spec: evaluate the inputs,
// call the function, compare structurally against the expected value.
type TestCase struct {
	Desc   string
	Inputs []Expr
	Expect Expr
}

// TestSpec attaches a list of cases to a function name.
type TestSpec struct {
	FnName string
	Cases  []TestCase
}

func (n *TestSpec) String() string {
	var s strings.Builder
	s.WriteString("(test-spec " + n.FnName)
	for _, c := range n.Cases {
		s.WriteString(fmt.Sprintf(" (case %q (input%s) (expect %s))",
			c.Desc, blockString(c.Inputs), c.Expect))
	}
	s.WriteString(")")
	return s.String()
}

// Module is a parsed .aisl file.
type Module struct {
	Name     string
	Imports  []string
	Funcs    []*Function
	Tests    []*TestSpec
	MetaNote string
}

func (m *Module) String() string {
	var s strings.Builder
	s.WriteString("(module " + m.Name)
	for _, imp := range m.Imports {
		s.WriteString("\n  (import " + imp + ")")
	}
	for _, fn := range m.Funcs {
		s.WriteString("\n  " + fn.String())
	}
	for _, ts := range m.Tests {
		s.WriteString("\n  " + ts.String())
	}
	if m.MetaNote != "" {
		s.WriteString(fmt.Sprintf("\n  (meta-note %q)", m.MetaNote))
	}
	s.WriteString(")")
	return s.String()
}
