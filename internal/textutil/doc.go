// Package textutil normalizes screenplay text for extraction and provides
// small shared text helpers. Uploaded documents arrive with mixed encodings,
// Windows line endings, and stray control characters; extraction assumes the
// cleaned form produced here.
package textutil
