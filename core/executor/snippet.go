package executor

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/scanner"
	"go/token"
	"go/types"
	"strings"
)

type segmentKind int

const (
	segStatement segmentKind = iota
	segImport
	segVar
	segDecl
	segSkip
)

type segment struct {
	kind  segmentKind
	name  string
	start int
	text  string
}

// splitSnippet cuts src into its top-level statements. Imports, named
// functions, methods and types can only live at file scope in Go, so the
// caller needs to know which is which before building a program around them.
func splitSnippet(src string) ([]segment, error) {
	fset := token.NewFileSet()
	file := fset.AddFile("snippet.go", -1, len(src))

	var scanErr error
	var s scanner.Scanner
	s.Init(file, []byte(src), func(pos token.Position, msg string) {
		if scanErr == nil {
			scanErr = fmt.Errorf("%d:%d: %s", pos.Line, pos.Column, msg)
		}
	}, 0)

	const (
		funcNone = iota
		funcAfterKeyword
		funcInReceiver
		funcAfterReceiver
	)

	var segs []segment
	depth := 0
	atStart := true
	funcState := funcNone
	for {
		pos, tok, lit := s.Scan()
		if tok == token.EOF {
			break
		}

		if depth == 0 && atStart {
			seg := segment{start: file.Offset(pos)}
			switch tok {
			case token.IMPORT:
				seg.kind = segImport
			case token.VAR, token.CONST:
				seg.kind = segVar
			case token.TYPE:
				seg.kind = segDecl
			case token.PACKAGE:
				seg.kind = segSkip
			case token.FUNC:
				funcState = funcAfterKeyword
			}
			segs = append(segs, seg)
			atStart = false
			if tok == token.FUNC {
				continue
			}
		}

		switch tok {
		case token.LBRACE, token.LPAREN, token.LBRACK:
			depth++
		case token.RBRACE, token.RPAREN, token.RBRACK:
			depth--
		case token.SEMICOLON:
			if depth == 0 {
				atStart = true
			}
		}

		cur := &segs[len(segs)-1]
		switch funcState {
		case funcAfterKeyword:
			switch tok {
			case token.IDENT:
				cur.kind, cur.name = segDecl, lit
				funcState = funcNone
			case token.LPAREN:
				funcState = funcInReceiver
			default:
				funcState = funcNone
			}
		case funcInReceiver:
			if tok == token.RPAREN && depth == 0 {
				funcState = funcAfterReceiver
			}
		case funcAfterReceiver:
			if tok == token.IDENT {
				cur.kind = segDecl
			}
			funcState = funcNone
		}
	}
	if scanErr != nil {
		return nil, scanErr
	}

	for i := range segs {
		end := len(src)
		if i+1 < len(segs) {
			end = segs[i+1].start
		}
		segs[i].text = strings.TrimSpace(src[segs[i].start:end])
	}
	return segs, nil
}

// buildProgram wraps src into a main package whose main function hands the
// snippet's outcome to the host through the aigraph/input package.
// hasProcess reports whether the snippet declared a process entry point.
func buildProgram(src string) (program string, hasProcess bool, err error) {
	segs, err := splitSnippet(src)
	if err != nil {
		return "", false, err
	}

	var imports, fileScope, body []string
	for _, seg := range segs {
		switch seg.kind {
		case segImport:
			imports = append(imports, seg.text)
		case segDecl:
			fileScope = append(fileScope, seg.text)
			if seg.name == "process" {
				hasProcess = true
			}
		}
	}
	for _, seg := range segs {
		switch {
		case seg.kind == segVar && hasProcess:
			fileScope = append(fileScope, seg.text)
		case seg.kind == segVar, seg.kind == segStatement:
			body = append(body, seg.text)
		}
	}

	var b strings.Builder
	b.WriteString("package main\n\nimport aigraphinput \"aigraph/input\"\n")
	for _, imp := range imports {
		b.WriteString(imp)
		b.WriteString("\n")
	}
	b.WriteString("\nvar input_data any = aigraphinput.Value\n\n")
	for _, decl := range fileScope {
		b.WriteString(decl)
		b.WriteString("\n\n")
	}

	if hasProcess {
		if len(body) > 0 {
			return "", true, fmt.Errorf("statement %q outside process", firstLine(body[0]))
		}
		call, err := processCall(b.String())
		if err != nil {
			return "", true, err
		}
		b.WriteString("func main() {\n")
		b.WriteString(call)
		b.WriteString("}\n")
		return b.String(), true, nil
	}

	// result is redeclared in the inner block when the snippet uses :=.
	b.WriteString("func aigraphScript() (aigraphOut any) {\n\tvar result any\n\t_ = result\n\t{\n")
	for _, stmt := range body {
		b.WriteString(stmt)
		b.WriteString("\n")
	}
	b.WriteString("\t\taigraphOut = result\n\t}\n\treturn\n}\n\n")
	b.WriteString("func main() {\n\taigraphOut := aigraphScript()\n\taigraphinput.Set(aigraphOut, nil)\n}\n")
	return b.String(), false, nil
}

// processCall returns the body of main for the process declared in file.
func processCall(file string) (string, error) {
	f, err := parser.ParseFile(token.NewFileSet(), "snippet.go", file, 0)
	if err != nil {
		return "", err
	}
	var fn *ast.FuncDecl
	for _, decl := range f.Decls {
		if fd, ok := decl.(*ast.FuncDecl); ok && fd.Recv == nil && fd.Name.Name == "process" {
			fn = fd
		}
	}
	if fn == nil {
		return "", fmt.Errorf("process is not a function")
	}
	if n := fn.Type.Params.NumFields(); n != 1 {
		return "", fmt.Errorf("process must take one argument, got %d", n)
	}

	arg := "input_data"
	switch typ := types.ExprString(fn.Type.Params.List[0].Type); typ {
	case "any", "interface{}":
	default:
		arg = "input_data.(" + typ + ")"
	}

	switch n := fn.Type.Results.NumFields(); n {
	case 1:
		return "\taigraphOut := process(" + arg + ")\n\taigraphinput.Set(aigraphOut, nil)\n", nil
	case 2:
		return "\taigraphOut, aigraphErr := process(" + arg + ")\n\taigraphinput.Set(aigraphOut, aigraphErr)\n", nil
	default:
		return "", fmt.Errorf("process must return a value or (value, error), got %d results", n)
	}
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
