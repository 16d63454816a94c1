// Package text reads and writes the textual form of warpsync IR.
//
// The syntax is a small LLVM-flavoured assembly: one declare or define
// per function, structured control flow instead of basic blocks, and
// typed operands.
//
// # Components
//
//   - Lexer: Tokenizes source text into tokens
//   - Parser: Parses tokens directly into an ir.Module
//   - Writer: Prints an ir.Module back to text
//
// # Usage
//
//	source := `
//	declare void @__syncwarp(i32)
//
//	define ptx_kernel void @k(i32 %mask) {
//	  call void @__syncwarp(i32 %mask)
//	  ret void
//	}
//	`
//
//	module, err := text.Parse(source)
//	if err != nil {
//	    var errs text.SourceErrors
//	    if errors.As(err, &errs) {
//	        fmt.Println(errs.FormatAll())
//	    }
//	    log.Fatal(err)
//	}
//
//	out, err := text.Write(module)
//
// # Syntax
//
//	declare [linkage] <ret> @name(<type> [%param], ...)
//	define [linkage] [ptx_kernel] <ret> @name(<type> %param, ...) { ... }
//
//	%v = <op> <type> <a>, <b>          ; add sub mul div rem eq ne lt le gt ge and xor or shl shr
//	[%v =] call <ret> @callee(<type> <a>, ...)
//	[%v =] call <ret> %fnptr(<type> <a>, ...)
//	[%v =] call_intrinsic <ret> "llvm.name"(<type> <a>, ...)
//	if <cond> { ... } [else { ... }]
//	loop { ... }
//	break
//	continue
//	{ ... }
//	ret void
//	ret <type> <a>
//
// Types are void, i1, i8, i16, i32, i64, half, float, double and
// ptr [addrspace(N)]. Comments start with ';' and run to end of line.
// Names that are not plain identifiers are written in double quotes.
package text
