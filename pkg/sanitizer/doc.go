// Package sanitizer normalizes guest and room input before validation and storage.
//
// All functions are idempotent and never return errors. Invalid input is
// reduced to an empty string so the validator rejects it with a field error.
//
// Normalization includes:
//   - Phone numbers: E.164 (+[country][number]), parsed against the property's regions
//   - Names: collapse whitespace, trim
//   - Emails: trim, lowercase
//   - Room types: collapse whitespace, title case ("deluxe  king" becomes "Deluxe King")
package sanitizer
