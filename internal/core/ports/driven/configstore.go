package driven

// ConfigStore provides read access to operator-maintained settings.
//
// The scheduled sync reads its project list through this interface so the
// operator can edit the list without restarting the process.
type ConfigStore interface {
	// GetString retrieves a string value; empty when unset.
	GetString(key string) string

	// GetStringSlice retrieves a string slice value; nil when unset.
	GetStringSlice(key string) []string

	// GetInt retrieves an integer value; zero when unset.
	GetInt(key string) int

	// GetBool retrieves a boolean value; false when unset.
	GetBool(key string) bool
}
