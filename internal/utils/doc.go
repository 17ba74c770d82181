// Package utils hosts the CLI plumbing shared by commands: the Viper backed
// ConfigurationLoader, the zap LoggerFactory with its optional rotating file
// sink, and the accessor for values carried in command contexts.
package utils
