// Package errors provides the classified error primitives used across doctools.
//
// A ClassifiedError carries a category (parse, resolve, codegen, server, ...),
// a severity and a retry hint together with structured context such as the
// offending file and line. Errors are created through the fluent builder:
//
//	err := errors.ParseError("unterminated REG block").
//		WithContext("file", path).
//		WithContext("line", 42).
//		Build()
//
// The CLI adapter turns a classified error into an exit code and a message.
package errors
