package markup

import (
	"fmt"

	"fortio.org/safecast"

	"markc/internal/source"
)

// cursor — позиция сканера в файле
type cursor struct {
	file  *source.File
	off   uint32
	limit uint32
}

func newCursor(f *source.File) cursor {
	limit, err := safecast.Conv[uint32](len(f.Content))
	if err != nil {
		panic(fmt.Errorf("len file content overflow: %w", err))
	}
	return cursor{file: f, limit: limit}
}

func (c *cursor) eof() bool {
	return c.off >= c.limit
}

func (c *cursor) peek() byte {
	if c.eof() {
		return 0
	}
	return c.file.Content[c.off]
}

func (c *cursor) bump() byte {
	if c.eof() {
		return 0
	}
	b := c.file.Content[c.off]
	c.off++
	return b
}

func (c *cursor) eat(b byte) bool {
	if !c.eof() && c.file.Content[c.off] == b {
		c.off++
		return true
	}
	return false
}

// hasPrefix проверяет, начинается ли остаток с s
func (c *cursor) hasPrefix(s string) bool {
	rest := c.file.Content[c.off:c.limit]
	return len(rest) >= len(s) && string(rest[:len(s)]) == s
}

// skipPast двигает курсор за первое вхождение s; false если s не найдено.
func (c *cursor) skipPast(s string) bool {
	for !c.eof() {
		if c.hasPrefix(s) {
			c.off += uint32(len(s))
			return true
		}
		c.off++
	}
	return false
}

func (c *cursor) skipSpace() {
	for !c.eof() && isSpace(c.file.Content[c.off]) {
		c.off++
	}
}

func (c *cursor) pos(off uint32) Pos {
	lc := c.file.LineCol(off)
	return Pos{Line: lc.Line, Col: lc.Col, Offset: off}
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
