package expression

// ExtractExpressions scans s for runtime expressions and returns them in
// order of appearance. Expressions start at a $ and run to the end of the
// string or the next space; the {$...} embedded form is returned braces
// included, and a # suffix carries a json pointer.
func ExtractExpressions(s string) []Expression {
	const (
		idle = iota
		inExpression
		inPointer
	)

	found := []Expression{}
	state := idle
	start := 0

	emit := func(end int) {
		if end > start {
			found = append(found, Expression(s[start:end]))
		}
		state = idle
	}

	for i, r := range s {
		switch state {
		case idle:
			if r == '$' || (r == '{' && i+1 < len(s) && s[i+1] == '$') {
				state = inExpression
				start = i
			}
		case inExpression:
			switch r {
			case '{':
				state = idle
			case '$':
				// A second $ aborts unless it opens the embedded form.
				if s[i-1] != '{' {
					state = idle
				}
			case '#':
				state = inPointer
			case '}':
				if i+1 < len(s) && s[i+1] == '#' {
					state = inPointer
				} else {
					emit(i + 1)
				}
			case ' ':
				state = idle
			}
		case inPointer:
			if r == ' ' {
				emit(i)
			}
		}
	}

	if state != idle {
		emit(len(s))
	}

	return found
}
