package constants

// CLIName is the binary name used in user-facing output.
const CLIName = "manifestcheck"

// ConfigFileName is the per-project configuration file looked up from the
// working directory.
const ConfigFileName = ".manifestcheck.yml"

// ManifestExtensions are the file extensions treated as YAML manifests
// during directory discovery.
var ManifestExtensions = []string{".yml", ".yaml"}

// MaxConcurrentValidations bounds the validation worker pool. Validation is
// CPU-light, so a modest bound keeps file handles in check without
// serializing large trees of manifests.
const MaxConcurrentValidations = 8
