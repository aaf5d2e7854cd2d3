package config

const (
	// MaxMessageLength is the maximum length (in characters) of a chat message.
	// Replies are short voice-style answers, so long prompts only burn
	// provider tokens without improving the answer.
	MaxMessageLength = 4000

	// MaxUserNameLength is the maximum length for display names.
	MaxUserNameLength = 100

	// MaxEmailLength is the maximum length for email addresses (RFC 5321 path limit).
	MaxEmailLength = 254

	// MinPasswordLength is the minimum password length accepted at registration.
	MinPasswordLength = 8

	// MaxPasswordLength is the maximum password length in bytes.
	// bcrypt ignores everything after 72 bytes.
	MaxPasswordLength = 72
)
