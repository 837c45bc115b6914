package mutation

import (
	"fmt"
	"strings"
)

// Messages are the user-facing texts for one resource.
type Messages struct {
	Created      string
	CreateFailed string
	Updated      string
	UpdateFailed string
	Deleted      string
	DeleteFailed string
	// BatchDeleted and BatchDeleteFailed are fmt formats taking the count
	// (and, for failures, the failed count first).
	BatchDeleted      string
	BatchDeleteFailed string
}

// DefaultMessages builds the standard texts for a singular noun, e.g.
// "expense" -> "Expense added successfully!" / "Failed to add the expense!".
func DefaultMessages(singular string) Messages {
	title := singular
	if singular != "" {
		title = strings.ToUpper(singular[:1]) + singular[1:]
	}
	return Messages{
		Created:           fmt.Sprintf("%s added successfully!", title),
		CreateFailed:      fmt.Sprintf("Failed to add the %s!", singular),
		Updated:           fmt.Sprintf("%s updated successfully!", title),
		UpdateFailed:      fmt.Sprintf("Failed to update the %s!", singular),
		Deleted:           fmt.Sprintf("%s deleted successfully!", title),
		DeleteFailed:      fmt.Sprintf("Failed to delete the %s!", singular),
		BatchDeleted:      fmt.Sprintf("%%d %ss deleted successfully!", singular),
		BatchDeleteFailed: fmt.Sprintf("Failed to delete %%d of %%d %ss!", singular),
	}
}

// Option adjusts the messages of a single mutation.
type Option func(*opMessages)

type opMessages struct {
	success string
	failure string
}

// WithSuccessMessage overrides the success text.
func WithSuccessMessage(msg string) Option {
	return func(m *opMessages) { m.success = msg }
}

// WithFailureMessage overrides the fallback failure text. A message sent by
// the server still wins.
func WithFailureMessage(msg string) Option {
	return func(m *opMessages) { m.failure = msg }
}

func resolve(success, failure string, opts []Option) opMessages {
	m := opMessages{success: success, failure: failure}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}
