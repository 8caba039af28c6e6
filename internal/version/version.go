package version

var (
	Version string
	Commit  string
)

func GetVersion() string {
	if Version == "" {
		return "dev"
	}
	return Version
}

func GetCommit() string {
	return Commit
}

func GetFullVersion() string {
	return GetVersion() + " (" + Commit + ")"
}
