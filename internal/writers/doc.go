// Package writers holds output helpers shared by the tools: recognizing a
// closed downstream pipe and serializing concurrent writers onto one stream.
package writers
