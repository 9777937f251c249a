// Package sanitizer normalizes guest input before validation and storage.
//
// All functions are idempotent and never fail: input that cannot be
// normalized is returned trimmed, or empty when it carries no value.
//
//   - Phone numbers: E.164 (+[country][number]) using a default region for
//     national numbers
//   - Strings: collapse whitespace, trim leading/trailing spaces
//   - Emails and currency codes: trimmed and lower-cased
package sanitizer
