// Package source loads template files as immutable byte buffers.
//
// A [Source] exposes the file contents with a zero sentinel byte one past the
// logical end. The contents are read through a [View], either a read-only
// memory map or a plain buffered read, chosen once when the file is opened.
//
// If the file starts with "#!", the first line is a directive. It is removed
// from the logical buffer, so offset 0 of [Source.Bytes] is the first byte
// after it.
package source
