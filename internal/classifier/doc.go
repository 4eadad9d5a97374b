// Package classifier answers the one question the pipeline pays for:
// does this profile appear to belong to a male person.
package classifier
