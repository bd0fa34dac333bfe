// Package markup is the structural model of a markup document.
//
// Parse turns a loaded source.File into a tree of Elements and Attributes.
// Every node keeps its 1-based line and character column together with its
// byte offset, and every attribute keeps the raw text between its quotes so
// the rewriter can erase it in place. The scanner understands comments,
// processing instructions, CDATA sections, DOCTYPE declarations, character
// and entity references, and namespace declarations. It does not validate
// against any schema.
package markup
