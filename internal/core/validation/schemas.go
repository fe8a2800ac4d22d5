package validation

import (
	"regexp"

	"github.com/creatorspace/community-api/internal/core/domain"
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,30}$`)
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

const (
	usernameMessage = "Username must be 3-30 characters long and contain only letters, numbers, and underscores"
	emailMessage    = "Invalid email format"

	// bcrypt rejects input past 72 bytes.
	PasswordMaxBytes = 72

	TitleMaxLength       = 255
	DescriptionMaxLength = 5000
)

// CreateUserSchema validates account creation. minPassword is environment
// dependent, see config.PasswordMinLength.
func CreateUserSchema(minPassword int) Schema {
	return Schema{
		{Name: "username", Rule: Rule{Required: true, Pattern: usernamePattern, Message: usernameMessage}},
		{Name: "password", Rule: Rule{Required: true, MinLength: minPassword, MaxBytes: PasswordMaxBytes}},
		{Name: "email", Rule: Rule{Pattern: emailPattern, Message: emailMessage}},
		{Name: "role", Rule: Rule{Enum: domain.RoleNames(), Default: string(domain.DefaultRole)}},
	}
}

// UpdateUserSchema validates a partial profile update.
func UpdateUserSchema() Schema {
	return Schema{
		{Name: "username", Rule: Rule{Pattern: usernamePattern, Message: usernameMessage}},
		{Name: "email", Rule: Rule{Pattern: emailPattern, Message: emailMessage}},
		{Name: "role", Rule: Rule{Enum: domain.RoleNames()}},
	}
}

func LoginSchema() Schema {
	return Schema{
		{Name: "username", Rule: Rule{Required: true}},
		{Name: "password", Rule: Rule{Required: true}},
	}
}

// PostSchema validates the text fields of a new post.
func PostSchema() Schema {
	return Schema{
		{Name: "title", Rule: Rule{Required: true, MaxLength: TitleMaxLength}},
		{Name: "description", Rule: Rule{MaxLength: DescriptionMaxLength}},
		{Name: "visibility", Rule: Rule{
			Enum:    []string{string(domain.VisibilityPublic), string(domain.VisibilityPrivate), string(domain.VisibilityFriends)},
			Default: string(domain.VisibilityPublic),
		}},
	}
}
