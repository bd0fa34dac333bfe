package source

type (
	// FileID uniquely identifies a source file within a FileSet.
	FileID uint32
	// FileFlags encodes metadata about a source file.
	FileFlags uint8
)

const (
	// FileVirtual indicates the file was added from memory (test, stdin, etc.).
	FileVirtual FileFlags = 1 << iota // добавлен не с диска (тест, stdin)
	FileHadBOM
	FileNormalizedCRLF
	// FileDecodedUTF16 marks content transcoded from UTF-16 to UTF-8 on load.
	FileDecodedUTF16
)

// File captures metadata and content for a single markup document.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	LineIdx []uint32 // byte offsets of every '\n'
	Hash    Digest
	Flags   FileFlags
}

// LineCol represents a human-readable position in a source file.
// Col counts characters (runes), not bytes.
type LineCol struct {
	Line uint32 // 1-based
	Col  uint32 // 1-based
}
