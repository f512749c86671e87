package scan

import "bytes"

// rawImport is one import/export-from/require/dynamic-import statement
// found by the byte-level lexer, before specifier classification.
type rawImport struct {
	Specifier string
	Statement string // source slice from the "import"/"require" keyword through the specifier literal
	Dynamic   bool
	TypeOnly  bool
}

func isWhiteSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isIdentifierChar(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || c == '_'
}

func skipSpaces(code []byte, i int) int {
	for i < len(code) && isWhiteSpace(code[i]) {
		i++
	}
	return i
}

func skipToStringEnd(code []byte, start int, quote byte) int {
	i := start + 1
	for i < len(code) {
		if code[i] == quote {
			return i
		}
		if code[i] == '\\' && i+1 < len(code) {
			i += 2
		} else {
			i++
		}
	}
	return i
}

func skipLineComment(code []byte, start int) int {
	i := start + 2
	for i < len(code) && code[i] != '\n' {
		i++
	}
	return i
}

func skipBlockComment(code []byte, start int) int {
	i := start + 2
	for i+1 < len(code) && !(code[i] == '*' && code[i+1] == '/') {
		i++
	}
	if i+1 < len(code) {
		i += 2
	}
	return i
}

// parseStringLiteral reads the quoted literal starting at i (a quote
// byte) and returns its content and the index just past the closing
// quote.
func parseStringLiteral(code []byte, i int) (content string, next int, ok bool) {
	quote := code[i]
	end := skipToStringEnd(code, i, quote)
	if end >= len(code) {
		return "", len(code), false
	}
	return string(code[i+1 : end]), end + 1, true
}

// parseDynamicArgument reads a parenthesized call argument list starting
// at i (the '(' byte) and returns the sole string-literal argument, if
// that's all the parens contain.
func parseDynamicArgument(code []byte, i int) (content string, next int, ok bool) {
	if i >= len(code) || code[i] != '(' {
		return "", i + 1, false
	}
	i++
	i = skipSpaces(code, i)
	if i >= len(code) || (code[i] != '"' && code[i] != '\'' && code[i] != '`') {
		// not a literal argument; skip to matching close paren
		depth := 1
		for i < len(code) && depth > 0 {
			switch code[i] {
			case '(':
				depth++
			case ')':
				depth--
			}
			i++
		}
		return "", i, false
	}
	lit, next, litOK := parseStringLiteral(code, i)
	if !litOK {
		return "", next, false
	}
	next = skipSpaces(code, next)
	if next >= len(code) || code[next] != ')' {
		// extra arguments present; not a plain literal-only call
		depth := 1
		j := next
		for j < len(code) && depth > 0 {
			switch code[j] {
			case '(':
				depth++
			case ')':
				depth--
			}
			j++
		}
		return "", j, false
	}
	return lit, next + 1, true
}

// lex scans code for import/export-from/require/dynamic-import statements.
func lex(code []byte) []rawImport {
	var out []rawImport
	i, n := 0, len(code)

	for i < n {
		i = skipSpaces(code, i)
		if i >= n {
			break
		}

		switch code[i] {
		case '\'', '"', '`':
			i = skipToStringEnd(code, i, code[i]) + 1
			continue
		}
		if i+1 < n && code[i] == '/' && code[i+1] == '/' {
			i = skipLineComment(code, i)
			continue
		}
		if i+1 < n && code[i] == '/' && code[i+1] == '*' {
			i = skipBlockComment(code, i)
			continue
		}

		switch {
		case bytes.HasPrefix(code[i:], []byte("import")) && (i+6 >= n || !isIdentifierChar(code[i+6])):
			stmtStart := i
			i += len("import")
			i = skipSpaces(code, i)
			if i >= n {
				break
			}
			if code[i] == '.' {
				// import.meta: not an install target, leave untouched
				continue
			}

			typeOnly := false
			if bytes.HasPrefix(code[i:], []byte("type")) && (i+4 >= n || !isIdentifierChar(code[i+4])) {
				typeOnly = true
				i += len("type")
				i = skipSpaces(code, i)
			}

			if i < n && (code[i] == '"' || code[i] == '\'') {
				spec, next, ok := parseStringLiteral(code, i)
				if ok && spec != "" {
					out = append(out, rawImport{Specifier: spec, Statement: string(code[stmtStart:next]), TypeOnly: typeOnly})
				}
				i = next
				continue
			}
			if i < n && code[i] == '(' {
				spec, next, ok := parseDynamicArgument(code, i)
				if ok && spec != "" {
					out = append(out, rawImport{Specifier: spec, Statement: string(code[stmtStart:next]), Dynamic: true})
				}
				i = next
				continue
			}
			// static import with bindings: find "from"
			for i < n && !bytes.HasPrefix(code[i:], []byte("from")) {
				if i+1 < n && code[i] == '/' && code[i+1] == '/' {
					i = skipLineComment(code, i)
					continue
				}
				if i+1 < n && code[i] == '/' && code[i+1] == '*' {
					i = skipBlockComment(code, i)
					continue
				}
				i++
			}
			if i >= n {
				break
			}
			i += len("from")
			i = skipSpaces(code, i)
			if i < n && (code[i] == '"' || code[i] == '\'') {
				spec, next, ok := parseStringLiteral(code, i)
				if ok && spec != "" {
					out = append(out, rawImport{Specifier: spec, Statement: string(code[stmtStart:next]), TypeOnly: typeOnly})
				}
				i = next
			}

		case bytes.HasPrefix(code[i:], []byte("require")) && (i+7 >= n || !isIdentifierChar(code[i+7])):
			i += len("require")
			i = skipSpaces(code, i)
			if i < n && code[i] == '(' {
				spec, next, ok := parseDynamicArgument(code, i)
				if ok && spec != "" {
					out = append(out, rawImport{Specifier: spec, Statement: "require(\"" + spec + "\")", Dynamic: true})
				}
				i = next
			}

		default:
			i++
		}
	}

	return out
}
