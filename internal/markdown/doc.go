// Package markdown renders record descriptions to sanitized HTML and reads
// markdown documents with front matter so they can be imported as records.
package markdown
