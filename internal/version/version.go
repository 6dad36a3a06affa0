package version

var (
	AppName     = "scriptbot"
	AppFullName = "Scriptbot Discord Bot"
	AppVersion  = "dev"
)
