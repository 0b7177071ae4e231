package auth

import (
	"errors"

	"github.com/dmitrijs2005/qrattend/internal/client/models"
)

// ErrResolveInProgress is reported to a caller that asks for a resolution
// while another one is still running on the same Resolver.
var ErrResolveInProgress = errors.New("auth resolution already in progress")

// Kind tags an Outcome.
type Kind int

const (
	Unauthenticated Kind = iota
	Authenticated
	WrongRole
	Error
)

func (k Kind) String() string {
	switch k {
	case Authenticated:
		return "authenticated"
	case WrongRole:
		return "wrong-role"
	case Error:
		return "error"
	default:
		return "unauthenticated"
	}
}

// Source tells which step authenticated the caller.
type Source string

const (
	SourceCookie Source = "cookie"
	SourceHeader Source = "header"
	SourceToken  Source = "token"
)

// Outcome is the result of one resolution. Only the fields relevant to Kind
// are set: Identity and Source for Authenticated, ActualRole for WrongRole,
// Err for Error.
type Outcome struct {
	Kind       Kind
	Identity   models.Identity
	Source     Source
	ActualRole models.Role
	Err        error
}

func authenticated(ident models.Identity, src Source) Outcome {
	return Outcome{Kind: Authenticated, Identity: ident, Source: src}
}

func wrongRole(actual models.Role) Outcome {
	return Outcome{Kind: WrongRole, ActualRole: actual}
}

func failed(err error) Outcome {
	return Outcome{Kind: Error, Err: err}
}

// OK reports an Authenticated outcome.
func (o Outcome) OK() bool { return o.Kind == Authenticated }
