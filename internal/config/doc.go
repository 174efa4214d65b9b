// Package config holds the crawler configuration: defaults, validation,
// the optional .docmirror YAML file, and XDG directory resolution.
//
// Configuration is assembled in layers: compiled defaults, then the config
// file, then DOCMIRROR_* environment variables, then CLI flags. The result
// is passed through the application by value; nothing reads configuration
// from globals.
package config
