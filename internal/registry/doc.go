// Package registry queries an npm-compatible package registry for the latest
// published version of a package.
//
// Client retries transient failures a fixed number of times with a fixed delay
// and treats HTTP 404 or a missing "latest" dist-tag as an unpublished package.
// TokenResolver supplies optional bearer tokens for private registries.
package registry
