package wgp

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// ErrorKind classifies the errors returned by this package.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	InvalidName
	DuplicateName
	UnknownDomain
	UnsupportedSense
	InvalidExpression
	NameCollision
	EmptyObjective
	SolverFailure
	InvalidGoal
	InvalidBounds
)

// Sentinel errors, one per kind. Errors returned by the registries wrap
// exactly one of these, so errors.Is and KindOf both work on them.
var (
	ErrInvalidName       = errors.New("invalid name")
	ErrDuplicateName     = errors.New("duplicate name")
	ErrUnknownDomain     = errors.New("unknown variable domain")
	ErrUnsupportedSense  = errors.New("unsupported sense")
	ErrInvalidExpression = errors.New("invalid linear expression")
	ErrNameCollision     = errors.New("name collision")
	ErrEmptyObjective    = errors.New("empty objective")
	ErrSolverFailure     = errors.New("solver failure")
	ErrInvalidGoal       = errors.New("invalid goal")
	ErrInvalidBounds     = errors.New("invalid bounds")
)

var kindSentinels = []struct {
	kind ErrorKind
	err  error
}{
	{InvalidName, ErrInvalidName},
	{DuplicateName, ErrDuplicateName},
	{UnknownDomain, ErrUnknownDomain},
	{UnsupportedSense, ErrUnsupportedSense},
	{InvalidExpression, ErrInvalidExpression},
	{NameCollision, ErrNameCollision},
	{EmptyObjective, ErrEmptyObjective},
	{SolverFailure, ErrSolverFailure},
	{InvalidGoal, ErrInvalidGoal},
	{InvalidBounds, ErrInvalidBounds},
}

func (k ErrorKind) String() string {
	switch k {
	case InvalidName:
		return "InvalidName"
	case DuplicateName:
		return "DuplicateName"
	case UnknownDomain:
		return "UnknownDomain"
	case UnsupportedSense:
		return "UnsupportedSense"
	case InvalidExpression:
		return "InvalidExpression"
	case NameCollision:
		return "NameCollision"
	case EmptyObjective:
		return "EmptyObjective"
	case SolverFailure:
		return "SolverFailure"
	case InvalidGoal:
		return "InvalidGoal"
	case InvalidBounds:
		return "InvalidBounds"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Sentinel returns the sentinel error of the kind, or nil for KindUnknown.
func (k ErrorKind) Sentinel() error {
	for _, ks := range kindSentinels {
		if ks.kind == k {
			return ks.err
		}
	}
	return nil
}

// KindOf reports the kind of err. It returns KindUnknown for nil and for
// errors that did not originate here.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}
	for _, ks := range kindSentinels {
		if errors.Is(err, ks.err) {
			return ks.kind
		}
	}
	return KindUnknown
}

func newError(kind ErrorKind, format string, args ...interface{}) error {
	return errors.Wrapf(kind.Sentinel(), format, args...)
}
