package setup

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/newbeeR2020/habit-tracker-setup/internal/credential"
)

// Kind classifies the outcome of a setup run.
type Kind int

// Failure kinds, in the order they can occur during a run.
const (
	KindSuccess Kind = iota
	KindCredential
	KindConnectivity
	KindPermission
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindCredential:
		return "credential-error"
	case KindConnectivity:
		return "connectivity-error"
	case KindPermission:
		return "permission-error"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Sentinels wrapped into Result.Err, one per failure kind.
var (
	ErrCredential   = errors.New("credential error")
	ErrConnectivity = errors.New("connectivity error")
	ErrPermission   = errors.New("permission error")
)

// Result is what a single Run produced. Err is nil on success and otherwise
// wraps both the kind sentinel and the underlying cause.
type Result struct {
	Kind Kind
	Path string
	Err  error
}

// OK reports whether the write went through.
func (r Result) OK() bool {
	return r.Kind == KindSuccess
}

// Classify maps an error from any setup stage to a failure kind.
func Classify(err error) Kind {
	if err == nil {
		return KindSuccess
	}
	if errors.Is(err, credential.ErrInvalid) {
		return KindCredential
	}
	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.Unauthenticated:
			return KindCredential
		case codes.PermissionDenied:
			return KindPermission
		}
	}
	return KindConnectivity
}

// Fail classifies err and builds the matching failed Result.
func Fail(path string, err error) Result {
	kind := Classify(err)
	var sentinel error
	switch kind {
	case KindCredential:
		sentinel = ErrCredential
	case KindPermission:
		sentinel = ErrPermission
	default:
		sentinel = ErrConnectivity
	}
	return Result{Kind: kind, Path: path, Err: fmt.Errorf("%w: %w", sentinel, err)}
}
