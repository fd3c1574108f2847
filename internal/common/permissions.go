package common

// File permission constants for files the CLI writes
const (
	// FilePermissionSecure is used for files that may hold credentials
	FilePermissionSecure = 0600

	// FilePermissionNormal is used for data files such as local sources
	FilePermissionNormal = 0644

	// DirPermissionNormal is used for normal directories
	DirPermissionNormal = 0755
)
