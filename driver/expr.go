// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package driver

import (
	"errors"
	"strconv"
)

// errParse is returned for any expression syntax error. It carries no
// position information.
var errParse = errors.New("expression syntax error")

// exprOp identifies one operator recognized by the expression parser,
// in descending order of precedence. The table shape (opdata,
// collapses) mirrors go6502's asm/expr.go shunting-yard evaluator,
// generalized here to resolve identifiers against a Resolver instead
// of a macro/label map pair.
type exprOp byte

const (
	opUnaryMinus exprOp = iota
	opUnaryPlus
	opBitwiseNEG
	opMultiply
	opDivide
	opModulo
	opAdd
	opSubtract
	opShiftLeft
	opShiftRight
	opBitwiseAND
	opBitwiseXOR
	opBitwiseOR
)

type opdata struct {
	precedence      byte
	binary          bool
	leftAssociative bool
	symbol          string
	eval            func(a, b int) int
}

var ops = []opdata{
	{7, false, false, "-", func(a, b int) int { return -a }},
	{7, false, false, "+", func(a, b int) int { return a }},
	{7, false, false, "~", func(a, b int) int { return ^a }},
	{6, true, true, "*", func(a, b int) int { return a * b }},
	{6, true, true, "/", func(a, b int) int { return a / b }},
	{6, true, true, "%", func(a, b int) int { return a % b }},
	{5, true, true, "+", func(a, b int) int { return a + b }},
	{5, true, true, "-", func(a, b int) int { return a - b }},
	{4, true, true, "<<", func(a, b int) int { return a << uint(b) }},
	{4, true, true, ">>", func(a, b int) int { return a >> uint(b) }},
	{3, true, true, "&", func(a, b int) int { return a & b }},
	{2, true, true, "^", func(a, b int) int { return a ^ b }},
	{1, true, true, "|", func(a, b int) int { return a | b }},
}

func (op exprOp) collapses(other exprOp) bool {
	if ops[op].leftAssociative {
		return ops[op].precedence <= ops[other].precedence
	}
	return ops[op].precedence < ops[other].precedence
}

// A Resolver answers what an identifier means during expression
// evaluation, so the driver's expression parser can reference labels
// defined in the Object under construction.
type Resolver interface {
	ResolveIdentifier(name string) (int, error)
}

type tokentype byte

const (
	tokenNil tokentype = iota
	tokenOp
	tokenNumber
	tokenIdentifier
	tokenLeftParen
	tokenRightParen
)

func (tt tokentype) isValue() bool {
	return tt == tokenNumber || tt == tokenIdentifier
}

type parsedToken struct {
	tt     tokentype
	number int
	ident  string
	op     exprOp
}

// node is one expression-tree node produced by the shunting-yard
// collapse step.
type node struct {
	op     exprOp
	number int
	ident  string
	child0 *node
	child1 *node
}

func (n *node) eval(r Resolver) (int, error) {
	switch {
	case n.ident != "":
		return r.ResolveIdentifier(n.ident)
	case n.child1 != nil:
		a, err := n.child0.eval(r)
		if err != nil {
			return 0, err
		}
		b, err := n.child1.eval(r)
		if err != nil {
			return 0, err
		}
		return ops[n.op].eval(a, b), nil
	case n.child0 != nil:
		a, err := n.child0.eval(r)
		if err != nil {
			return 0, err
		}
		return ops[n.op].eval(a, 0), nil
	default:
		return n.number, nil
	}
}

type nodeStack struct{ data []*node }

func (s *nodeStack) push(n *node) { s.data = append(s.data, n) }
func (s *nodeStack) pop() *node {
	n := s.data[len(s.data)-1]
	s.data = s.data[:len(s.data)-1]
	return n
}
func (s *nodeStack) peek() *node  { return s.data[len(s.data)-1] }
func (s *nodeStack) empty() bool  { return len(s.data) == 0 }

func (s *nodeStack) collapse(op exprOp) error {
	if int(op) >= len(ops) {
		return errParse // pseudo-op (paren) should never reach here
	}
	if ops[op].binary {
		if len(s.data) < 2 {
			return errParse
		}
		b, a := s.pop(), s.pop()
		s.push(&node{op: op, child0: a, child1: b})
		return nil
	}
	if s.empty() {
		return errParse
	}
	s.push(&node{op: op, child0: s.pop()})
	return nil
}

type opStack struct{ data []exprOp }

func (s *opStack) push(op exprOp) { s.data = append(s.data, op) }
func (s *opStack) pop() exprOp {
	op := s.data[len(s.data)-1]
	s.data = s.data[:len(s.data)-1]
	return op
}
func (s *opStack) empty() bool { return len(s.data) == 0 }
func (s *opStack) peek() exprOp { return s.data[len(s.data)-1] }

const (
	opLeftParen  exprOp = 100
	opRightParen exprOp = 101
)

// Eval parses and evaluates a numeric expression, resolving any bare
// identifier it encounters (a label name) via r.
func Eval(expr string, r Resolver) (int, error) {
	var operands nodeStack
	var operators opStack
	parenDepth := 0
	var prev parsedToken

	line := newToken(expr).consumeWhitespace()
	for {
		tok, out, err := parseToken(line, prev, &parenDepth)
		if err != nil {
			return 0, err
		}
		if tok.tt == tokenNil {
			break
		}

		switch tok.tt {
		case tokenNumber:
			operands.push(&node{number: tok.number})
		case tokenIdentifier:
			operands.push(&node{ident: tok.ident})
		case tokenOp:
			for !operators.empty() && operators.peek() != opLeftParen && tok.op.collapses(operators.peek()) {
				if err := operands.collapse(operators.pop()); err != nil {
					return 0, err
				}
			}
			operators.push(tok.op)
		case tokenLeftParen:
			operators.push(opLeftParen)
		case tokenRightParen:
			for {
				if operators.empty() {
					return 0, errParse
				}
				op := operators.pop()
				if op == opLeftParen {
					break
				}
				if err := operands.collapse(op); err != nil {
					return 0, err
				}
			}
		}
		prev = tok
		line = out
	}

	for !operators.empty() {
		op := operators.pop()
		if op == opLeftParen {
			return 0, errParse
		}
		if err := operands.collapse(op); err != nil {
			return 0, err
		}
	}

	if operands.empty() {
		return 0, errParse
	}
	root := operands.pop()
	if !operands.empty() {
		return 0, errParse
	}
	return root.eval(r)
}

func parseToken(line token, prev parsedToken, parenDepth *int) (t parsedToken, out token, err error) {
	if line.isEmpty() {
		return parsedToken{tt: tokenNil}, line, nil
	}

	switch {
	case line.startsWith(decimal) || line.startsWithChar('$'):
		n, rest, perr := parseNumber(line)
		if perr != nil {
			return t, out, perr
		}
		if prev.tt.isValue() || prev.tt == tokenRightParen {
			return t, out, errParse
		}
		t, out = parsedToken{tt: tokenNumber, number: n}, rest

	case line.startsWithChar('('):
		*parenDepth++
		t, out = parsedToken{tt: tokenLeftParen}, line.consume(1)

	case line.startsWithChar(')'):
		if *parenDepth == 0 {
			return t, out, errParse
		}
		*parenDepth--
		t, out = parsedToken{tt: tokenRightParen}, line.consume(1)

	case line.startsWith(identifierStartChar) && !prev.tt.isValue() && prev.tt != tokenRightParen:
		// After a value, '+' and '&' are binary operators (handled
		// below), not label sigils.
		sigils, rest := line.consumeWhile(func(c byte) bool { return c == '+' || c == '&' })
		name, rest2 := rest.consumeWhile(identifierChar)
		t, out = parsedToken{tt: tokenIdentifier, ident: sigils.str + name.str}, rest2

	default:
		for i, o := range ops {
			if o.symbol != "" && line.startsWithString(o.symbol) {
				if o.binary || (!prev.tt.isValue() && prev.tt != tokenRightParen) {
					t, out = parsedToken{tt: tokenOp, op: exprOp(i)}, line.consume(len(o.symbol))
					break
				}
			}
		}
		if t.tt != tokenOp {
			return t, out, errParse
		}
	}

	out = out.consumeWhitespace()
	return t, out, nil
}

// parseNumber recognizes decimal, $hex, 0xhex and 0bbinary literals.
func parseNumber(line token) (value int, remain token, err error) {
	base, fn := 10, decimal
	switch {
	case line.startsWithChar('$'):
		line = line.consume(1)
		base, fn = 16, hexadecimal
	case line.startsWithString("0x"):
		line = line.consume(2)
		base, fn = 16, hexadecimal
	case line.startsWithString("0b"):
		line = line.consume(2)
		base, fn = 2, binaryDigit
	}

	numstr, rest := line.consumeWhile(fn)
	if numstr.isEmpty() {
		return 0, line, errParse
	}
	n, convErr := strconv.ParseInt(numstr.str, base, 64)
	if convErr != nil {
		return 0, line, errParse
	}
	return int(n), rest, nil
}
