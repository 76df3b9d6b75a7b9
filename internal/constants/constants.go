package constants

const (
	Version        = `0.1.0`
	ConfigFile     = `cfg`
	ConfigFileType = `yaml`
	ConfigDir      = `/.tagdex/`
	EnvPrefix      = `TAGDEX`
	CacheFile      = `index.db`
)
