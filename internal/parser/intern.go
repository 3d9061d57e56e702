package parser

// MaxInternPoolSize bounds the pool; past it strings are returned as is.
const MaxInternPoolSize = 500000

// StringIntern makes equal field strings share one backing allocation.
// Sensor exports repeat the same few values (units, zeros, status flags) on
// almost every row, so a table keeps far fewer distinct strings alive.
// A StringIntern is owned by one pipeline run and is not safe for
// concurrent use.
type StringIntern struct {
	pool map[string]string
}

// NewStringIntern creates an empty interner.
func NewStringIntern() *StringIntern {
	return &StringIntern{pool: make(map[string]string, 1024)}
}

// Intern returns the canonical copy of s.
func (si *StringIntern) Intern(s string) string {
	if pooled, ok := si.pool[s]; ok {
		return pooled
	}
	if len(si.pool) >= MaxInternPoolSize {
		return s
	}
	si.pool[s] = s
	return s
}

// Len returns the number of distinct strings held.
func (si *StringIntern) Len() int {
	return len(si.pool)
}

// Clear drops every pooled string.
func (si *StringIntern) Clear() {
	si.pool = make(map[string]string, 1024)
}
