// Package compiler turns SQL source text into a list of Stmt values the
// executor package runs directly: a lexer producing a flat token stream
// and a recursive-descent parser building the AST. There is no separate
// planner/VM stage.
package compiler
