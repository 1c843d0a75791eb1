// Package locale normalizes translation target locales.
//
// Locale preferences arrive from config files and CLI flags in assorted
// shapes ("de", "de_DE", "DE-de"); translate tasks carry canonical BCP 47
// tags so downstream translators and the dedup key see one spelling.
package locale
