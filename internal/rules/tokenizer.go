// Package rules implements the rule-based transaction categorization engine.
//
// Rules are learned from user categorizations and later applied to
// uncategorized transactions: the tokenizer reduces a raw description to
// its meaningful tokens, the matcher ranks stored rules against a
// transaction, and the engine applies the best match without ever
// overwriting an existing assignment.
package rules

import (
	"strings"
	"unicode/utf8"
)

// stopWords are tokens that carry no categorization signal: payment
// processors, banking vocabulary, generic commerce and function words in
// English and Spanish, reference identifiers, and merchant generics.
var stopWords = map[string]struct{}{
	// Payment processors
	"paypal": {}, "stripe": {}, "square": {}, "shopify": {},
	"fastspring": {}, "2checkout": {},
	// Banks
	"bank": {}, "banking": {}, "transfer": {}, "payment": {},
	"deposit": {}, "withdrawal": {},
	// Generic actions
	"transaction": {}, "pago": {}, "compra": {}, "venta": {},
	"order": {}, "purchase": {}, "sale": {},
	// Common words
	"the": {}, "a": {}, "an": {}, "to": {}, "from": {}, "and": {},
	"or": {}, "of": {}, "in": {}, "on": {}, "at": {}, "by": {},
	"de": {}, "la": {}, "el": {}, "un": {}, "una": {}, "y": {},
	"o": {}, "para": {}, "por": {}, "con": {}, "sin": {},
	// Reference identifiers
	"ref": {}, "id": {}, "invoice": {}, "factura": {}, "ticket": {},
	"trans": {}, "tx": {}, "via": {},
	// Merchant generics
	"merchant": {}, "vendor": {}, "store": {}, "shop": {},
	"retail": {}, "online": {},
}

// isSeparator reports whether r splits a description into tokens.
func isSeparator(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '-', '_', '*', '#', '@', '.', ',', '(', ')':
		return true
	}
	return false
}

// Sanitize extracts meaningful lowercase tokens from a transaction
// description, preserving order and duplicates.
//
// Examples:
//
//	"PAYPAL *NAMECHEAP"    -> ["namecheap"]
//	"Sole y Gian f*HANDY*" -> ["sole", "gian", "handy"]
//	"the and payment"      -> []
//
// Fragments of length <= 1 and stop words are dropped. Numeric fragments
// are kept; only length and stop-word membership filter tokens.
func Sanitize(description string) []string {
	desc := strings.ToLower(strings.TrimSpace(description))

	fields := strings.FieldsFunc(desc, isSeparator)

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if utf8.RuneCountInString(f) <= 1 {
			continue
		}
		if _, generic := stopWords[f]; generic {
			continue
		}
		tokens = append(tokens, f)
	}

	return tokens
}
