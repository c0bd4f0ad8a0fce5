package types

import (
	"fmt"
	"strings"
)

func render(t Type) string {
	switch t.kind {
	case Invalid:
		return "<unresolved>"
	case Int:
		return "int"
	case Uint:
		return "uint"
	case Float:
		return "float"
	case Char:
		return "char"
	case Bool:
		return "bool"
	case String:
		return "string"
	case Symbol:
		return "symbol"
	case Template:
		return fmt.Sprintf("<template:%d>", t.tmpl)
	case Class:
		if len(t.params) == 0 {
			return fmt.Sprintf("class#%d", t.class)
		}
		parts := make([]string, len(t.params))
		for i, p := range t.params {
			parts[i] = render(p)
		}
		return fmt.Sprintf("class#%d(%s)", t.class, strings.Join(parts, ", "))
	case Tuple:
		parts := make([]string, len(t.params))
		for i, p := range t.params {
			parts[i] = render(p)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case Array:
		if t.hasSize {
			return fmt.Sprintf("[%s; %d]", render(t.Elem()), t.size)
		}
		return fmt.Sprintf("[%s]", render(t.Elem()))
	case Pointer:
		return "pointer(" + render(t.Elem()) + ")"
	case Dict:
		return fmt.Sprintf("dict(%s, %s)", render(t.DictKey()), render(t.Elem()))
	case Range:
		b, e, incl := t.RangeBounds()
		sep := ".."
		if incl {
			sep = "..."
		}
		return fmt.Sprintf("range(%s%s%s)", render(b), sep, render(e))
	case Qualified:
		return "?" + render(t.Elem())
	case Function, GenericFunction:
		parts := make([]string, len(t.params))
		for i, p := range t.params {
			parts[i] = render(p)
		}
		ret := "()"
		if t.ret != nil {
			ret = render(*t.ret)
		}
		prefix := "func"
		if t.kind == GenericFunction {
			prefix = "generic_func"
		}
		return fmt.Sprintf("%s(%s) -> %s", prefix, strings.Join(parts, ", "), ret)
	default:
		return "<?>"
	}
}
