package runtime

// ApprovalPolicy decides whether a specific tool call requires human
// approval. Errors during evaluation default to "approval required"
// (fail-closed, spec §4.4).
type ApprovalPolicy func(rc *RunContextWrapper, args map[string]interface{}, callID string) (bool, error)

// AsNeedsApprovalFunc adapts a fail-closed ApprovalPolicy into the
// NeedsApprovalFunc shape Tool.NeedsApproval expects, swallowing policy
// errors into "approval required".
func AsNeedsApprovalFunc(policy ApprovalPolicy) NeedsApprovalFunc {
	return func(rc *RunContextWrapper, args map[string]interface{}, callID string) bool {
		required, err := policy(rc, args, callID)
		if err != nil {
			return true
		}
		return required
	}
}

// RequireAdminRole requires approval unless role is present among
// ctx.Context's roles. Context is expected to expose roles via the
// RoleLister interface; callers whose context type does not implement it
// are treated as having no roles (fail-closed: approval required).
func RequireAdminRole(role string) ApprovalPolicy {
	return func(rc *RunContextWrapper, args map[string]interface{}, callID string) (bool, error) {
		lister, ok := rc.Context.(RoleLister)
		if !ok {
			return true, nil
		}
		for _, r := range lister.Roles() {
			if r == role {
				return false, nil
			}
		}
		return true, nil
	}
}

// RoleLister is implemented by a caller's context object to expose the
// roles RequireAdminRole checks against.
type RoleLister interface {
	Roles() []string
}

// RequireForArgs requires approval iff predicate(args) is true.
func RequireForArgs(predicate func(args map[string]interface{}) bool) ApprovalPolicy {
	return func(rc *RunContextWrapper, args map[string]interface{}, callID string) (bool, error) {
		return predicate(args), nil
	}
}

// RequireForState requires approval iff predicate(context) is true.
func RequireForState(predicate func(context interface{}) bool) ApprovalPolicy {
	return func(rc *RunContextWrapper, args map[string]interface{}, callID string) (bool, error) {
		return predicate(rc.Context), nil
	}
}

// CounterReader is implemented by a caller's context object to expose
// monotonically increasing counters RequireAfterCount checks against.
type CounterReader interface {
	Counter(key string) int
}

// RequireAfterCount requires approval once context's named counter reaches
// threshold.
func RequireAfterCount(key string, threshold int) ApprovalPolicy {
	return func(rc *RunContextWrapper, args map[string]interface{}, callID string) (bool, error) {
		reader, ok := rc.Context.(CounterReader)
		if !ok {
			return true, nil
		}
		return reader.Counter(key) >= threshold, nil
	}
}

// Always always requires approval.
func Always() ApprovalPolicy {
	return func(rc *RunContextWrapper, args map[string]interface{}, callID string) (bool, error) {
		return true, nil
	}
}

// Never never requires approval.
func Never() ApprovalPolicy {
	return func(rc *RunContextWrapper, args map[string]interface{}, callID string) (bool, error) {
		return false, nil
	}
}

// Any returns a policy requiring approval iff any of policies does
// (logical OR, short-circuiting on first true).
func Any(policies ...ApprovalPolicy) ApprovalPolicy {
	return func(rc *RunContextWrapper, args map[string]interface{}, callID string) (bool, error) {
		for _, p := range policies {
			required, err := p(rc, args, callID)
			if err != nil {
				return true, err
			}
			if required {
				return true, nil
			}
		}
		return false, nil
	}
}

// All returns a policy requiring approval iff every one of policies does
// (logical AND, short-circuiting on first false).
func All(policies ...ApprovalPolicy) ApprovalPolicy {
	return func(rc *RunContextWrapper, args map[string]interface{}, callID string) (bool, error) {
		for _, p := range policies {
			required, err := p(rc, args, callID)
			if err != nil {
				return true, err
			}
			if !required {
				return false, nil
			}
		}
		return true, nil
	}
}

// ApprovalDecision is a caller's resolution for one pending ApprovalRequest.
type ApprovalDecision struct {
	Approve      bool
	Reason       string
	ModifiedArgs map[string]interface{}
}
