// Package sanitizer normalizes user-supplied text before validation and storage.
//
// Every function is idempotent and never returns an error: input that cannot be
// normalized comes back empty so the validator can reject it.
//
//   - Phone numbers are converted to E.164 (+[country][number]) using the configured regions.
//   - Names and free text have whitespace collapsed and are trimmed.
//   - Categories and emails are lowercased.
//   - URLs are forced to https with a lowercase host.
//   - Quantities are clamped to the range a cart line accepts.
package sanitizer
