package bindgen

import (
	"fmt"
	"strings"

	"github.com/wippyai/wasm-bindgen/program"
)

// generateEnum surfaces a module enum as a frozen name-to-value object and
// a TypeScript enum declaration.
func (cx *Context) generateEnum(e *program.Enum) {
	cx.binding = e.Name

	var variants strings.Builder
	for _, v := range e.Variants {
		variants.WriteString(fmt.Sprintf("%s:%d,", v.Name, v.Value))
	}
	cx.export(e.Name, fmt.Sprintf("Object.freeze({ %s })", variants.String()),
		formatDocComments(e.Comments, ""))

	cx.typescript += fmt.Sprintf("export enum %s {", e.Name)
	for _, v := range e.Variants {
		cx.typescript += v.Name + ","
	}
	cx.typescript += "}\n"
}
