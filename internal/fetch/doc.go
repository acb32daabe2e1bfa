// Package fetch downloads cache sources to local files.
//
// Classify sorts a source URL into local paths, gs:// objects and http(s)
// resources. HTTPFetcher downloads over HTTP and treats any non-2xx status as
// failure. GCSClient copies Cloud Storage objects with a lazily constructed
// storage client.
package fetch
