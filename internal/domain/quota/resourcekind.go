package quota

import "fmt"

// ResourceKind identifies a quota-gated action.
type ResourceKind string

const (
	// ResourceKindInterest is sending an interest expression to another profile.
	ResourceKindInterest ResourceKind = "interest"
	// ResourceKindContactView is revealing another profile's contact details.
	ResourceKindContactView ResourceKind = "contact_view"
	// ResourceKindImage is storing a gallery image.
	ResourceKindImage ResourceKind = "image"
)

// AllResourceKinds lists every known kind in a stable order.
var AllResourceKinds = []ResourceKind{
	ResourceKindInterest,
	ResourceKindContactView,
	ResourceKindImage,
}

// IsValid checks if the resource kind is known
func (k ResourceKind) IsValid() bool {
	switch k {
	case ResourceKindInterest, ResourceKindContactView, ResourceKindImage:
		return true
	default:
		return false
	}
}

// IsCountable reports whether remaining allowance is measured by counting
// live associated records instead of an explicit used counter.
func (k ResourceKind) IsCountable() bool {
	return k == ResourceKindImage
}

// IsDecrementing reports whether the kind is tracked by an atomically
// incremented used counter on the entitlement row.
func (k ResourceKind) IsDecrementing() bool {
	return k == ResourceKindInterest || k == ResourceKindContactView
}

// String returns the string representation of the resource kind
func (k ResourceKind) String() string {
	return string(k)
}

// ParseResourceKind converts s into a ResourceKind.
func ParseResourceKind(s string) (ResourceKind, error) {
	k := ResourceKind(s)
	if !k.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidResourceKind, s)
	}
	return k, nil
}
