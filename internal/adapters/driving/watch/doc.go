// Package watch versions workflow documents as they change on disk.
//
// A Watcher observes one directory with fsnotify. Each write to a JSON or
// YAML document is debounced, throttled by a token bucket and then fed to
// VersionService.VersionBump; created versions are saved immediately.
package watch
