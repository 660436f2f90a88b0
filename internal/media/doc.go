// Package media stores product images.
//
// Two backends implement Store: LocalStore writes files under a directory
// that the API serves statically, and S3Store uploads to an S3-compatible
// bucket (AWS or MinIO). Both name objects "<unixmillis>-<random><ext>",
// keeping the client's extension, and both reject non-image uploads and
// files larger than the configured limit.
package media
