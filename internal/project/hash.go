package project

import "markc/internal/source"

// Digest совпадает с source.File.Hash
type Digest = source.Digest

// Combine строит составной ключ кэша: H(first || rest...). Порядок важен.
func Combine(first Digest, rest ...Digest) Digest {
	parts := make([][]byte, 0, len(rest)+1)
	parts = append(parts, first[:])
	for i := range rest {
		parts = append(parts, rest[i][:])
	}
	return source.Sum(parts...)
}
