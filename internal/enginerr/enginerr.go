// Package enginerr declares the semantic error kinds ScarDB's components
// agree on. Lower packages wrap these with context via fmt.Errorf("%w: ...")
// and callers distinguish them with errors.Is.
package enginerr

import "errors"

var (
	NotFound         = errors.New("not found")
	AlreadyExists    = errors.New("already exists")
	SchemaTooWide    = errors.New("schema too wide")
	UnknownColumn    = errors.New("unknown column")
	TypeMismatch     = errors.New("type mismatch")
	ValueTooLong     = errors.New("value too long")
	DuplicateKey     = errors.New("duplicate key")
	NotNullViolation = errors.New("not null violation")
	CorruptRow       = errors.New("corrupt row")
	CorruptTable     = errors.New("corrupt table")
	IoError          = errors.New("io error")
	Unsupported      = errors.New("unsupported")
)
