package object

// String is an immutable byte sequence canonicalized by the Heap's intern
// table: any two strings with equal bytes share the same object identity.
type String struct {
	header
	Chars string
	Hash  uint32
}

func (s *String) objKind() objKind    { return objString }
func (s *String) typeName() string    { return "string" }
func (s *String) String() string      { return s.Chars }
func (s *String) trace(h *Heap)       {}
func (s *String) approxSize() uintptr { return uintptr(16 + len(s.Chars)) }

// hashFNV1a computes the 32-bit FNV-1a hash of s, cached on String.Hash at
// construction time.
func hashFNV1a(s string) uint32 {
	const (
		offsetBasis = 2166136261
		prime       = 16777619
	)
	h := uint32(offsetBasis)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= prime
	}
	return h
}
