// Package ptr provides pointer construction helpers for optional fields.
package ptr

// To returns a pointer to v. DTOs and pagination tokens model optional
// string fields as *string with nil meaning absent; To builds the present
// case without a temporary variable.
func To[T any](v T) *T {
	return &v
}
